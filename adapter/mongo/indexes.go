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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upper/mongoadmin"
)

// indexSpec is an index document as listed by the server.
type indexSpec struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             bool   `bson:"unique,omitempty"`
	Background         bool   `bson:"background,omitempty"`
	Sparse             bool   `bson:"sparse,omitempty"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds,omitempty"`
	DefaultLanguage    string `bson:"default_language,omitempty"`
	LanguageOverride   string `bson:"language_override,omitempty"`
	Weights            bson.D `bson:"weights,omitempty"`
}

func (spec indexSpec) info(ns mongoadmin.Namespace) mongoadmin.IndexInfo {
	return mongoadmin.IndexInfo{
		Namespace:          ns,
		Name:               spec.Name,
		Keys:               spec.Key,
		Unique:             spec.Unique,
		Background:         spec.Background,
		Sparse:             spec.Sparse,
		ExpireAfterSeconds: spec.ExpireAfterSeconds,
		DefaultLanguage:    spec.DefaultLanguage,
		LanguageOverride:   spec.LanguageOverride,
		TextWeights:        spec.Weights,
	}
}

func (c *client) Indexes(ctx context.Context, ns mongoadmin.Namespace) ([]mongoadmin.IndexInfo, error) {
	cur, err := c.collection(ns).Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Indexes.List: %w", err)
	}
	defer cur.Close(ctx)

	indexes := []mongoadmin.IndexInfo{}
	for cur.Next(ctx) {
		var spec indexSpec
		if err := cur.Decode(&spec); err != nil {
			return nil, fmt.Errorf("Decode: %w", err)
		}
		indexes = append(indexes, spec.info(ns))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return indexes, nil
}

func (c *client) CreateIndex(ctx context.Context, info mongoadmin.IndexInfo) error {
	_, err := c.collection(info.Namespace).Indexes().CreateOne(ctx, indexModel(info))
	if err != nil {
		return fmt.Errorf("Indexes.CreateOne: %w", err)
	}
	return nil
}

func (c *client) DropIndex(ctx context.Context, ns mongoadmin.Namespace, name string) error {
	if _, err := c.collection(ns).Indexes().DropOne(ctx, name); err != nil {
		return fmt.Errorf("Indexes.DropOne: %w", err)
	}
	return nil
}

func indexModel(info mongoadmin.IndexInfo) mongo.IndexModel {
	opts := options.Index()
	if info.Name != "" {
		opts.SetName(info.Name)
	}
	if info.Unique {
		opts.SetUnique(true)
	}
	if info.Background {
		opts.SetBackground(true)
	}
	if info.Sparse {
		opts.SetSparse(true)
	}
	if info.ExpireAfterSeconds != nil {
		opts.SetExpireAfterSeconds(*info.ExpireAfterSeconds)
	}
	if info.DefaultLanguage != "" {
		opts.SetDefaultLanguage(info.DefaultLanguage)
	}
	if info.LanguageOverride != "" {
		opts.SetLanguageOverride(info.LanguageOverride)
	}
	if len(info.TextWeights) > 0 {
		opts.SetWeights(info.TextWeights)
	}

	return mongo.IndexModel{
		Keys:    info.Keys,
		Options: opts,
	}
}
