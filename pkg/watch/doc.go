// Package watch turns fsnotify events into events.Notification values for a
// set of path subscriptions.
//
// fsnotify watches single directories, so a directory subscription adds a
// watch for every subdirectory and follows directories created later. A file
// subscription watches the parent directory and filters on the exact path,
// which keeps it alive across editors that save by renaming.
//
// Overlapping subscriptions share directory watches by reference count and
// every raw event is delivered at most once.
package watch
