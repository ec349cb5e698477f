// Package descriptor reads the two text formats pkglink consumes: the
// per-package descriptor (package.js) and the project manifest
// (.meteor/packages).
//
// All functions are pure: they take raw file content and return names. Reading
// files is left to the callers so the store and orchestrator decide how I/O
// errors are reported.
//
// Descriptor format:
//
//	Package.describe({
//	    name: 'core',
//	});
//
//	Package.onUse(function(api) {
//	    api.use('ui');                  // private or external dependency
//	    api.use(['ddp', 'mongo'], 'server');
//	});
//
// Lines whose first non-blank characters are "//" are ignored. Version
// constraints ("name@1.2.3") are stripped from dependency names.
package descriptor
