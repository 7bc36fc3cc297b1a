package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"neo4j-connector/backend/internal/connector"
)

type storeFunc func() commandStore

func pingCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the store answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := store().Ping(cmd.Context()); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), map[string]string{"status": "ok"})
		},
	}
}

func createCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "create <model> <json>",
		Short: "Create a record and print its id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseRecord("record", args[1])
			if err != nil {
				return err
			}
			id, err := store().Create(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), map[string]any{"id": id})
		},
	}
}

func allCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "all <model> [filter]",
		Short: "List records matching a JSON filter",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter connector.Filter
			if len(args) > 1 {
				if err := json.Unmarshal([]byte(args[1]), &filter); err != nil {
					return fmt.Errorf("invalid filter: %w", err)
				}
			}
			records, err := store().All(cmd.Context(), args[0], filter)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), records)
		},
	}
}

func countCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "count <model> [where]",
		Short: "Count records matching a JSON where clause",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var where connector.Record
			if len(args) > 1 {
				w, err := parseRecord("where", args[1])
				if err != nil {
					return err
				}
				where = w
			}
			n, err := store().Count(cmd.Context(), args[0], where)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), map[string]int64{"count": n})
		},
	}
}

func getCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <model> <id>",
		Short: "Fetch one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := store().FindByID(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), rec)
		},
	}
}

func replaceCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <model> <id> <json>",
		Short: "Overwrite every property of a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseRecord("record", args[2])
			if err != nil {
				return err
			}
			rec, err := store().ReplaceByID(cmd.Context(), args[0], args[1], data)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), rec)
		},
	}
}

func patchCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "patch <model> <id> <json>",
		Short: "Merge properties into a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseRecord("record", args[2])
			if err != nil {
				return err
			}
			rec, err := store().UpdateAttributes(cmd.Context(), args[0], args[1], data)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), rec)
		},
	}
}

func upsertCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "upsert <model> <json>",
		Short: "Update or create a record keyed on its id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseRecord("record", args[1])
			if err != nil {
				return err
			}
			rec, err := store().UpdateOrCreate(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), rec)
		},
	}
}

func destroyCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <model> <id>",
		Short: "Delete one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := store().Destroy(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), map[string]int64{"count": n})
		},
	}
}

func destroyAllCmd(store storeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy-all <model> <where>",
		Short: "Delete the record identified by where.id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			where, err := parseRecord("where", args[1])
			if err != nil {
				return err
			}
			if err := store().DestroyAll(cmd.Context(), args[0], where); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), map[string]string{"status": "deleted"})
		},
	}
}

func parseRecord(what, raw string) (connector.Record, error) {
	var rec connector.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", what, err)
	}
	return rec, nil
}

func emit(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
