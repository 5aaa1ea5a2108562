// Package runlog creates the log files of a run.
//
// A run writes its own log to <log dir>/<config name>.<set name>/<config
// name>.log and one log per scenario file under the same directory,
// mirroring the scenario's path relative to the data root.
package runlog
