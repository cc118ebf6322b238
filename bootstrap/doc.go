// Package bootstrap runs programs assembled from components.
//
// NewApp validates the config and sets up logging. Run serves until a
// signal arrives; RunTask runs a finite task such as a CLI command. Both
// start the registered components in order, run the lifecycle hooks and
// stop the components in reverse order on the way out.
package bootstrap
