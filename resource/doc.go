// Package resource bounds the memory, concurrency and IO used by clustering runs.
//
// A nil *Controller is valid and imposes no limits, so components accept one as an
// optional collaborator.
package resource
