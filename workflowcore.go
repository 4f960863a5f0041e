// Package workflowcore is a declarative workflow orchestration core for
// hierarchical, multi-kind agent trees: model, code, expression and tool
// leaves composed by sequential, parallel, loop and DAG schedulers.
package workflowcore

// Version is the version of the workflow orchestration core.
var Version = "v0.0.0"
