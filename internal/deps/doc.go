// Package deps reports whether the external binaries MediaKit invokes are
// installed.
package deps
