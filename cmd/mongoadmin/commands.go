// Copyright (c) 2012-present The upper.io/db authors. All rights reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining
// a copy of this software and associated documentation files (the
// "Software"), to deal in the Software without restriction, including
// without limitation the rights to use, copy, modify, merge, publish,
// distribute, sublicense, and/or sell copies of the Software, and to
// permit persons to whom the Software is furnished to do so, subject to
// the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
// LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
// OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
// WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
)

var dbsCmd = &cobra.Command{
	Use:   "dbs",
	Short: "List databases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.LoadDatabaseNamesResponse](cmd.Context(), s, &mongoadmin.LoadDatabaseNamesRequest{
				Envelope: s.envelope(),
			})
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), databasesTable(resp.Databases))
		})
	},
}

var collectionsCmd = &cobra.Command{
	Use:   "collections <database>",
	Short: "List collections with their storage statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.LoadCollectionNamesResponse](cmd.Context(), s, &mongoadmin.LoadCollectionNamesRequest{
				Envelope: s.envelope(),
				Database: args[0],
			})
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), collectionsTable(resp.Collections))
		})
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes <database> <collection>",
	Short: "List the indexes of a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.LoadCollectionIndexesResponse](cmd.Context(), s, &mongoadmin.LoadCollectionIndexesRequest{
				Envelope:  s.envelope(),
				Namespace: mongoadmin.Namespace{Database: args[0], Collection: args[1]},
			})
			if err != nil {
				return err
			}
			data, err := indexesTable(resp.Indexes)
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), data)
		})
	},
}

var usersCmd = &cobra.Command{
	Use:   "users <database>",
	Short: "List the users of a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.LoadUsersResponse](cmd.Context(), s, &mongoadmin.LoadUsersRequest{
				Envelope: s.envelope(),
				Database: args[0],
			})
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), usersTable(resp.Users))
		})
	},
}

var functionsCmd = &cobra.Command{
	Use:   "functions <database>",
	Short: "List stored JavaScript functions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.LoadFunctionsResponse](cmd.Context(), s, &mongoadmin.LoadFunctionsRequest{
				Envelope: s.envelope(),
				Database: args[0],
			})
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), functionsTable(resp.Functions))
		})
	},
}

var findFlags struct {
	skip  int64
	limit int64
}

var findCmd = &cobra.Command{
	Use:   "find <database> <collection> [filter]",
	Short: "Query a collection",
	Long: `find runs a query and prints matching documents as extended JSON.

  mongoadmin find shop items '{"name": "lamp"}'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := mongoadmin.QueryInfo{
			Namespace: mongoadmin.Namespace{Database: args[0], Collection: args[1]},
			Skip:      findFlags.skip,
			Limit:     findFlags.limit,
		}
		if len(args) == 3 {
			filter, err := parseFilter(args[2])
			if err != nil {
				return err
			}
			q.Filter = filter
		}

		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.ExecuteQueryResponse](cmd.Context(), s, &mongoadmin.ExecuteQueryRequest{
				Envelope: s.envelope(),
				Query:    q,
			})
			if err != nil {
				return err
			}
			return printDocuments(cmd.OutOrStdout(), resp.Documents)
		})
	},
}

var execDatabase string

var execCmd = &cobra.Command{
	Use:   "exec <script>",
	Short: "Run shell statements",
	Long: `exec runs newline separated shell statements:

  use <database>
  show dbs | show collections | show users
  db.<collection>.find(<filter>)
  {<command document>}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.ExecuteScriptResponse](cmd.Context(), s, &mongoadmin.ExecuteScriptRequest{
				Envelope: s.envelope(),
				Script:   args[0],
				Database: execDatabase,
			})
			if err != nil {
				return err
			}
			return printScript(cmd.OutOrStdout(), resp.Result)
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <prefix>",
	Short: "Suggest shell completions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			resp, err := call[*mongoadmin.AutocompleteResponse](cmd.Context(), s, &mongoadmin.AutocompleteRequest{
				Envelope: s.envelope(),
				Prefix:   args[0],
			})
			if err != nil {
				return err
			}
			for _, suggestion := range resp.Suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), suggestion)
			}
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show client and server versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := "unknown"
		err := withSession(cmd.Context(), func(s *session) error {
			server = s.Info.Version
			return nil
		})
		if err != nil {
			pterm.Warning.Println(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mongoadmin %s\nserver %s\n", Version, server)
		return nil
	},
}

func init() {
	findCmd.Flags().Int64Var(&findFlags.skip, "skip", 0, "Number of documents to skip")
	findCmd.Flags().Int64Var(&findFlags.limit, "limit", 20, "Maximum number of documents")

	execCmd.Flags().StringVar(&execDatabase, "db", "", "Database to run the script in")
}

func parseFilter(s string) (bson.Raw, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &d); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return bson.Marshal(d)
}

func printTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func printDocuments(w io.Writer, docs []bson.Raw) error {
	lines, err := documentLines(docs)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func printScript(w io.Writer, res mongoadmin.ScriptResult) error {
	for _, stmt := range res.Results {
		fmt.Fprintln(w, pterm.Bold.Sprint("> "+stmt.Statement))
		if stmt.Message != "" {
			fmt.Fprintln(w, strings.TrimRight(stmt.Message, "\n"))
		}
		if err := printDocuments(w, stmt.Documents); err != nil {
			return err
		}
	}
	return nil
}
