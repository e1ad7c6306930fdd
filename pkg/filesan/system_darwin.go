//go:build darwin

package filesan

// System is the mode of the build target.
const System = Mac
