// Package main loads a house file, reports every definition defect, and prints
// a summary of the rooms it would serve.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cory-johannsen/hauntedhouse/content"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
)

func main() {
	path := flag.String("house", "", "path to a house YAML file; empty checks the embedded house")
	verbose := flag.Bool("v", false, "list every room with its exits and effect")
	flag.Parse()

	start := time.Now()
	var (
		h   *house.House
		err error
	)
	if *path == "" {
		h, err = house.LoadHouseFromBytes(content.House)
	} else {
		h, err = house.LoadHouseFromFile(*path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d rooms, %d haunted, starts in %s\n",
		h.Name, h.Catalog.Len(), h.Catalog.HauntedCount(), h.StartRoom)
	if *verbose {
		for room := range h.Catalog.Rooms() {
			line := fmt.Sprintf("  %-16s -> %s", room.Name, strings.Join(room.Exits, ", "))
			if effect := h.Catalog.Effect(room.Name); effect != house.EffectNone {
				line += fmt.Sprintf(" [%s]", effect)
			}
			fmt.Println(line)
		}
	}
	fmt.Printf("house valid in %s\n", time.Since(start).Round(time.Millisecond))
}
