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

package shell

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/upper/mongoadmin"
)

var keywords = []string{
	"use ",
	"show dbs",
	"show collections",
	"show users",
	"db.",
}

// Complete offers keywords and the collections of the current database.
// Candidates starting with prefix come first, in order, followed by
// fuzzy matches ranked by distance.
func (s *Shell) Complete(ctx context.Context, prefix string) ([]string, error) {
	candidates := append([]string(nil), keywords...)

	err := s.withClient(ctx, func(c mongoadmin.Client) error {
		names, err := c.CollectionNames(ctx, s.database)
		if err != nil {
			return err
		}
		sort.Strings(names)
		for _, name := range names {
			candidates = append(candidates, "db."+name, "db."+name+".find(")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rank(prefix, candidates), nil
}

func rank(prefix string, candidates []string) []string {
	out := []string{}
	seen := map[string]bool{}

	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	ranks := fuzzy.RankFindFold(prefix, candidates)
	sort.Stable(ranks)
	for _, r := range ranks {
		if !seen[r.Target] {
			seen[r.Target] = true
			out = append(out, r.Target)
		}
	}

	return out
}
