package core

// Version is the build-time binary version (e.g. "v1.2.3"). It is a
// distinct type so that Wire can tell it apart from plain strings, and
// it is reported by the ops server.
type Version string
