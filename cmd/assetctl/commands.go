package main

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// printJSON writes v indented, one document per call.
func printJSON(w io.Writer, v any) error {
	enc := jsonAPI.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newJSONCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "json <path>",
		Short: "Fetch a resource and print it as indented JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			v, err := rt.FetchJSON(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newBinaryCmd(flags *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "binary <path>",
		Short: "Fetch a resource as raw bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			blob, err := rt.FetchBinary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(blob.Data)
				return err
			}
			if err := os.WriteFile(output, blob.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d bytes, type %q, status %d\n", output, blob.Size(), blob.Type, blob.Status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the body to this file instead of stdout")
	return cmd
}

type mapSummary struct {
	Path     string           `json:"path"`
	Width    uint32           `json:"width"`
	Height   uint32           `json:"height"`
	Layers   []layerSummary   `json:"layers"`
	Tilesets []tilesetSummary `json:"tilesets"`
}

type layerSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Visible bool   `json:"visible"`
	Tiles   int    `json:"tiles,omitempty"`
	Objects int    `json:"objects,omitempty"`
}

type tilesetSummary struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
	Format      string `json:"format,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

func newMapCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "map <path>",
		Short: "Load a tile map and its tileset images and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			m, err := rt.FetchMap(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			summary := mapSummary{Path: m.Path, Width: m.Size.Width, Height: m.Size.Height}
			for _, l := range m.Layers {
				summary.Layers = append(summary.Layers, layerSummary{
					Name:    l.Name,
					Kind:    l.Kind,
					Visible: l.Visible,
					Tiles:   len(l.Data),
					Objects: len(l.Objects),
				})
			}
			for _, ts := range m.Tilesets {
				s := tilesetSummary{
					Name:        ts.Name,
					Image:       ts.ImagePath,
					ContentType: ts.Image.Type,
					Bytes:       ts.Image.Size(),
				}
				if cfg, format, err := ts.Image.ImageConfig(); err == nil {
					s.Format, s.Width, s.Height = format, cfg.Width, cfg.Height
				}
				summary.Tilesets = append(summary.Tilesets, s)
			}

			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newBundleCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <map-path>",
		Short: "Archive a tile map and its tileset images into the bundle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := rt.Bundle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, e := range report.Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", e.Key, e.ContentType, e.Size)
			}
			return nil
		},
	}
}
