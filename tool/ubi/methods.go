package ubi

import (
	"strings"
)

const (
	ResolveMethod = "ubi"
	InstallMethod = ResolveMethod

	// installerCommand is the external generic binary installer that performs the download and unpacking.
	installerCommand = "ubi"
)

func IsResolveMethod(method string) bool {
	return IsInstallMethod(method)
}

func IsInstallMethod(method string) bool {
	switch strings.ToLower(method) {
	case InstallMethod, "universal binary installer", "universal-binary-installer":
		return true
	}
	return false
}
