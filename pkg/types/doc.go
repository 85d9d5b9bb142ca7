// Package types defines the Store interface and the draft record envelope,
// along with the options and error kinds shared across the module.
package types
