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

// Command jyafn is the CLI surface (the "External Interfaces" of
// spec.md §6): run/desc/timeit/serve/cloud/ext, a single small main using
// the standard library flag package with a hand-rolled subcommand
// dispatch, the same shape as the teacher's cmd/sdb.
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	dashgraph bool
	dashn     int
	dashport  int
)

func init() {
	flag.BoolVar(&dashgraph, "graph", false, "desc: also print the compiled instruction listing")
	flag.IntVar(&dashn, "n", 100, "timeit: number of calls to time")
	flag.IntVar(&dashport, "port", 8080, "serve: port to listen on")
}

func exitf(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "run":
		if len(args) != 3 {
			exitf("usage: jyafn run <artifact> <json>")
		}
		run(args[1], args[2])
	case "desc":
		if len(args) != 2 {
			exitf("usage: jyafn [-graph] desc <artifact>")
		}
		desc(args[1], dashgraph)
	case "timeit":
		if len(args) != 3 {
			exitf("usage: jyafn [-n N] timeit <artifact> <json>")
		}
		timeit(args[1], args[2], dashn)
	case "serve":
		if len(args) != 2 {
			exitf("usage: jyafn [-port P] serve <artifact>")
		}
		serve(args[1], dashport)
	case "cloud":
		if len(args) != 3 || args[1] != "push" {
			exitf("usage: jyafn cloud push <artifact>")
		}
		cloudPush(args[2])
	case "ext":
		if len(args) < 2 {
			exitf("usage: jyafn ext get <url> | ls | rm <name>")
		}
		switch args[1] {
		case "get":
			if len(args) != 3 {
				exitf("usage: jyafn ext get <url>")
			}
			extGet(args[2])
		case "ls":
			extLs()
		case "rm":
			if len(args) != 3 {
				exitf("usage: jyafn ext rm <name>")
			}
			extRm(args[2])
		default:
			exitf("ext subcommands: get, ls, rm")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "    %s run <artifact> <json>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        load an artifact and call it with a JSON argument\n")
	fmt.Fprintf(os.Stderr, "    %s [-graph] desc <artifact>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        print an artifact's structural description\n")
	fmt.Fprintf(os.Stderr, "    %s [-n N] timeit <artifact> <json>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        call an artifact N times and report timing statistics\n")
	fmt.Fprintf(os.Stderr, "    %s [-port P] serve <artifact>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        serve an artifact's POST /call over HTTP\n")
	fmt.Fprintf(os.Stderr, "    %s cloud push <artifact>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        push an artifact's manifest to JYAFNCLOUD_HOST\n")
	fmt.Fprintf(os.Stderr, "    %s ext get <url> | ls | rm <name>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        manage the extension search path\n")
	fmt.Fprintf(os.Stderr, "flag usage:\n")
	flag.Usage()
}
