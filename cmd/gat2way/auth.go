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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gat2way/internal/telemetry"
)

// EnvPassword lets scripts log in without a prompt.
const EnvPassword = "GTW_PASSWORD"

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session in the OS keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			if email == "" {
				email = prompt(in, out, "E-mail: ")
			}
			if password == "" {
				password = os.Getenv(EnvPassword)
			}
			if password == "" {
				password = prompt(in, out, "Senha: ")
			}
			s, err := a.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.sessions.Set(s); err != nil {
				return err
			}
			telemetry.Event(telemetry.EventLogin, nil)
			fmt.Fprintf(out, "Logged in as %s (valid until %s)\n", s.User.Email, s.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "password (prefer "+EnvPassword+" or the prompt)")
	return cmd
}

func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and remove it from the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.sessions.Token() != "" {
				if err := a.client().Logout(cmd.Context()); err != nil {
					a.log.Warn("server logout failed; clearing local session anyway")
				}
			}
			if err := a.sessions.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			u, err := c.Me(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			return a.emit(cmd.OutOrStdout(), u, func(w io.Writer) {
				role := "user"
				if u.Admin {
					role = "admin"
				}
				fmt.Fprintf(w, "%s <%s> (%s)\n", u.Name, u.Email, role)
			})
		},
	}
}
