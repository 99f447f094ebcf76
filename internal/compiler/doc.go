// Package compiler turns a tokenized pipeline program into an executable Transform.
//
// A program is an argument vector. Flags select how the input is decoded, how
// the output is rendered and which variables are bound; every positional token
// is a jq filter step, and the steps are piped into each other in order. A bare
// "|" token is accepted as a separator and ignored. A program without steps is
// the identity.
//
// Parsing and compiling are split so that a caller can honour the help flag
// without compiling anything.
package compiler
