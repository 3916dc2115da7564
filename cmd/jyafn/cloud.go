// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/viodotcom/jyafn/artifact"
)

const defaultCloudHost = "https://cloud.jyafn.com"

type pushManifest struct {
	Path         string `json:"path"`
	DeployToken  string `json:"deploy_token"`
	InputLayout  any    `json:"input_layout"`
	OutputLayout any    `json:"output_layout"`
}

// entry point for 'jyafn cloud push <artifact>'. Authenticates with a
// bearer token read from JYAFN_DEPLOY_TOKEN; there is no request-signing
// scheme here (see DESIGN.md for why aws/v4.go's signer has no home in
// this CLI).
func cloudPush(path string) {
	token := os.Getenv("JYAFN_DEPLOY_TOKEN")
	if token == "" {
		exitf("cloud push: JYAFN_DEPLOY_TOKEN is not set")
	}
	host := os.Getenv("JYAFNCLOUD_HOST")
	if host == "" {
		host = defaultCloudHost
	}

	data, err := os.ReadFile(path)
	if err != nil {
		exitf("reading %s: %s", path, err)
	}
	desc, err := artifact.Describe(data)
	if err != nil {
		exitf("describing %s: %s", path, err)
	}

	manifest := pushManifest{
		Path:         path,
		DeployToken:  token,
		InputLayout:  desc.InputLayout,
		OutputLayout: desc.ReturnLayout,
	}
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		exitf("encoding manifest: %s", err)
	}

	req, err := http.NewRequest(http.MethodPost, host+"/v1/artifacts", bytes.NewReader(manifestJSON))
	if err != nil {
		exitf("building request: %s", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		exitf("pushing %s: %s", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		exitf("pushing %s: %s: %s", path, resp.Status, string(respBody))
	}
	fmt.Fprintln(os.Stdout, string(respBody))
}
