/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"os"

	"gat2way/internal/crash"
	applog "gat2way/internal/log"
	"gat2way/internal/telemetry"
)

func main() {
	// initialize structured logging using environment defaults; the config
	// file's logging section is applied once it has been read
	applog.Init(applog.FromEnv())
	a := newApp()
	defer crash.Recover(a.work)

	root := newRootCmd(a)
	err := root.Execute()
	telemetry.Default().Flush(root.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
