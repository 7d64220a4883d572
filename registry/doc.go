// Package registry maps unique tool names to handler descriptors.
//
// Tools are registered explicitly at startup, either one by one through
// Register or in bulk through Discover, which drains the descriptors
// contributed by Provide at package init time. There is no reflection and
// no runtime scanning: adding a tool means adding a Provide call, never
// touching this package.
package registry
