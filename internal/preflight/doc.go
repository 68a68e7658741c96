// Package preflight provides readiness checks for the external tools and
// filesystem paths MediaKit depends on.
//
// These checks run in two contexts:
//   - The HTTP status endpoint reports them so operators can see why a
//     capability is failing before submitting work.
//   - The CLI "mediakit status" command renders the same report as a table.
//
// The template directory is optional. A missing one is reported but does
// not make the report unready.
package preflight
