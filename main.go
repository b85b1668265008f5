package main

import "github.com/couchbaselabs/rancher-gitlab-deploy/cmd"

func main() {
	cmd.Execute()
}
