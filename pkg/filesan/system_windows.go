//go:build windows

package filesan

// System is the mode of the build target.
const System = Windows
