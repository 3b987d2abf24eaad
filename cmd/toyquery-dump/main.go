/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
toyquery-dump exports one ToyQuery database from a data directory.

It reads the .tab files directly and takes no locks, so run it against a
stopped server or a backup snapshot.

Usage:

	toyquery-dump -d <data_dir> -db <name> [options]

Options:

	-d <path>       Data directory (default: the server default)
	-db <name>      Database to dump (required)
	-t <tables>     Comma-separated tables to dump (default: all)
	-f <format>     tab, json or script (default: script)
	-o <file>       Output file (default: stdout)
	-z              Compress output with gzip
	-encoding <e>   File encoding: utf8, latin1, ascii (default: utf8)

Examples:

	# Replayable command script
	toyquery-dump -db school -o school.tq

	# JSON export of two tables
	toyquery-dump -db school -t student,transcript -f json

	# Compressed dump of a snapshot
	toyquery-dump -d /var/lib/toyquery-backups/20260118T130000Z-... -db school -z -o school.tq.gz
*/
package main

import (
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"toyquery/internal/banner"
	"toyquery/internal/config"
	"toyquery/internal/storage"
)

func main() {
	dataDir := flag.String("d", config.GetDefaultDataDir(), "Data directory path")
	database := flag.String("db", "", "Database name to dump (required)")
	tableList := flag.String("t", "", "Comma-separated list of tables to dump (default: all)")
	format := flag.String("f", FormatScript, "Output format: tab, json, script")
	outputFile := flag.String("o", "", "Output file path (default: stdout)")
	compress := flag.Bool("z", false, "Compress output with gzip")
	encoding := flag.String("encoding", "utf8", "Table file encoding: utf8, latin1, ascii")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("toyquery-dump version %s\n", banner.Version)
		return
	}
	if *database == "" {
		fmt.Fprintln(os.Stderr, "Error: -db is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*dataDir, *database, *tableList, *format, *outputFile, *encoding, *compress); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dataDir, database, tableList, format, outputFile, encoding string, compress bool) error {
	encoder, err := storage.ParseEncoding(encoding)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dataDir); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	store, err := storage.NewStore(dataDir, encoder)
	if err != nil {
		return err
	}

	var tables []string
	if tableList != "" {
		for _, t := range strings.Split(tableList, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tables = append(tables, t)
			}
		}
	}

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if compress {
		gz := gzip.NewWriter(out)
		defer gz.Close()
		out = gz
	}

	return Dump(out, store, database, tables, format)
}
