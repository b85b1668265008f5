package buildversion

import "runtime/debug"

// MainPkgVersion overrides the detected version, eg:
// -ldflags "-X github.com/couchbaselabs/rancher-gitlab-deploy/contrib/buildversion.MainPkgVersion=v1.2.0"
var MainPkgVersion string

func vcsVersion(info *debug.BuildInfo) string {
	revision := ""
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "devel"
	}
	if modified {
		return revision + "+local"
	}
	return revision
}

// GetVersion reports the version of pkg as recorded in the running binary,
// falling back to the VCS revision for local builds.
func GetVersion(pkg string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "nobuilddata"
	}

	if info.Main.Path != pkg {
		for _, dep := range info.Deps {
			if dep.Path == pkg {
				return dep.Version
			}
		}
		return "notfound"
	}

	if MainPkgVersion != "" {
		return MainPkgVersion
	}

	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return vcsVersion(info)
	}
	return info.Main.Version
}
