// Copyright 2016 Michael Stapelberg and contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/stapelberg/spotgen/internal/container"
	"github.com/stapelberg/spotgen/internal/tiff"
)

// maxValues is how many values of an entry inspect prints.
const maxValues = 8

// entryValue summarizes the value of e for display.
func entryValue(ifd *tiff.IFD, e tiff.Entry) string {
	switch e.Type {
	case tiff.Byte, tiff.Short, tiff.Long:
		if e.Tag == tiff.TagPhotoshop || e.Tag == tiff.TagXMP {
			break
		}
		vals, err := ifd.Uints(e.Tag)
		if err != nil {
			return err.Error()
		}
		strs := make([]string, 0, maxValues)
		for i, v := range vals {
			if i == maxValues {
				strs = append(strs, "…")
				break
			}
			strs = append(strs, strconv.FormatUint(uint64(v), 10))
		}
		return strings.Join(strs, " ")

	case tiff.Rational:
		num, den, _ := ifd.Rational(e.Tag)
		return fmt.Sprintf("%d/%d", num, den)

	case tiff.ASCII:
		s := ifd.ASCII(e.Tag)
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[:i] + " …"
		}
		return strconv.Quote(s)
	}
	return humanize.Bytes(uint64(len(e.Data)))
}

func inspect(w io.Writer, path string) error {
	info, err := container.ReadTags(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s, %d×%d, %d samples per pixel, photometric %d\n",
		path, humanize.Bytes(uint64(info.Size)), info.Width, info.Height, info.SamplesPerPixel, info.Photometric)

	rows := make([][]string, 0, len(info.IFD.Entries))
	for _, e := range info.IFD.Entries {
		rows = append(rows, []string{
			strconv.Itoa(int(e.Tag)),
			tiff.TagName(e.Tag),
			e.Type.String(),
			strconv.FormatUint(uint64(e.Count), 10),
			entryValue(info.IFD, e),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Tag", "Name", "Type", "Count", "Value"}, rows, 0, 3))

	if len(info.Channels) > 0 {
		fmt.Fprintf(w, "channels: %s\n", strings.Join(info.Channels, " "))
	}
	if len(info.PhotoshopChannels) > 0 {
		fmt.Fprintf(w, "photoshop channel names: %q\n", info.PhotoshopChannels)
	}
	switch {
	case info.ICCProfile == nil:
		fmt.Fprintln(w, "icc: none")
	default:
		summary, err := container.DescribeICC(info.ICCProfile)
		if err != nil {
			fmt.Fprintf(w, "icc: %s, %v\n", humanize.Bytes(uint64(len(info.ICCProfile))), err)
		} else {
			fmt.Fprintf(w, "icc: %s\n", summary)
		}
	}
	switch {
	case info.XMP == nil:
		fmt.Fprintln(w, "xmp: none")
	default:
		basic, err := container.ReadXMP(info.XMP)
		if err != nil {
			fmt.Fprintf(w, "xmp: invalid: %v\n", err)
		} else {
			fmt.Fprintf(w, "xmp: valid, %s, creator tool %q, rating %v\n",
				humanize.Bytes(uint64(len(info.XMP))), basic.CreatorTool.V, basic.Rating.V)
		}
	}
	return nil
}

func newInspectCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Print the TIFF tags, channel names and metadata of spot TIFFs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, path := range args {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := inspect(cmd.OutOrStdout(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
