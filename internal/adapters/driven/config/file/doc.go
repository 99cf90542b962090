// Package file provides the TOML-backed configuration store.
//
// Values set through the store are persisted to config.toml. Environment
// variables named SERCHA_SP_<KEY> override file values without being written.
package file
