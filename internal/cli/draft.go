package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/mesh-intelligence/formdraft/internal/autosave"
	"github.com/mesh-intelligence/formdraft/internal/env"
	"github.com/mesh-intelligence/formdraft/internal/persist"
	"github.com/mesh-intelligence/formdraft/internal/recovery"
	"github.com/mesh-intelligence/formdraft/pkg/store"
	"github.com/mesh-intelligence/formdraft/pkg/types"
)

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(fn func(types.Store) error) (err error) {
	st, err := store.Open(a.settings.Store)
	if err != nil {
		return sysError("open %s store: %w", a.settings.Store.Backend, err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			err = multierr.Append(err, sysError("close store: %w", cerr))
		}
	}()
	return fn(st)
}

// withEngine opens the store and an engine for key.
func (a *app) withEngine(key string, fn func(*persist.Engine) error) error {
	return a.withStore(func(st types.Store) error {
		return a.useEngine(st, key, fn)
	})
}

// useEngine runs fn on an engine for key over an already open store.
func (a *app) useEngine(st types.Store, key string, fn func(*persist.Engine) error) (err error) {
	e, err := persist.New(persist.Config{Key: key, Options: a.settings.Options, Store: st})
	if err != nil {
		return userError("%w", err)
	}
	defer func() { err = multierr.Append(err, e.Close()) }()
	return fn(e)
}

func (a *app) printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %w", err)
	}
	writeLine(w, "%s", out)
	return nil
}

// parseObject decodes a JSON object argument.
func parseObject(arg string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(arg), &data); err != nil {
		return nil, userError("draft data must be a JSON object: %w", err)
	}
	if data == nil {
		return nil, userError("draft data must be a JSON object, got null")
	}
	return data, nil
}

// parseValue decodes a JSON value argument. Text that is not JSON is taken
// as a plain string.
func parseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	return v
}

// draftInfo is the JSON shape of info and list output.
type draftInfo struct {
	Key       string `json:"key"`
	HasData   bool   `json:"has_data"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Saved     string `json:"saved,omitempty"`
}

func newDraftInfo(key string, info types.SavedDataInfo, now time.Time) draftInfo {
	d := draftInfo{Key: key, HasData: info.HasData}
	if info.HasData {
		d.Timestamp = info.Timestamp
		d.Version = info.Version
		d.Saved = recovery.RelativeTime(info.Timestamp, now)
	}
	return d
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <key|-> <json>",
		Short: "Save a draft immediately",
		Long:  "Save a JSON object as the draft for key. A key of - generates a new draft key.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if key == "-" {
				id, err := uuid.NewV7()
				if err != nil {
					return sysError("generate draft key: %w", err)
				}
				key = id.String()
			}
			data, err := parseObject(args[1])
			if err != nil {
				return err
			}
			return a.withEngine(key, func(e *persist.Engine) error {
				if err := e.SaveData(data, true); err != nil {
					return sysError("save draft %q: %w", key, err)
				}
				if a.flags.jsonMode {
					return a.printJSON(cmd.OutOrStdout(), newDraftInfo(key, e.GetSavedDataInfo(), time.Now()))
				}
				writeLine(cmd.OutOrStdout(), "%s", key)
				return nil
			})
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <field> <json-value>",
		Short: "Update one field of a draft",
		Long: "Merge one field into the stored draft through the auto-save path.\n" +
			"The value is parsed as JSON; anything else is stored as a string.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, field := args[0], args[1]
			return a.withStore(func(st types.Store) (err error) {
				bus := env.NewBus()
				o, err := autosave.New(autosave.Config{
					Key:     key,
					Options: a.settings.Options,
					Store:   st,
					Env:     bus,
					Callbacks: autosave.Callbacks{
						OnSaveError: func(err error, retryCount int) {
							log.Warnw("save failed", "key", key, "retry", retryCount, "err", err)
						},
					},
				})
				if err != nil {
					return userError("%w", err)
				}
				defer func() { err = multierr.Append(err, o.Close()) }()

				if err := o.Load(); err != nil {
					return sysError("load draft %q: %w", key, err)
				}
				if err := o.UpdateField(field, parseValue(args[2])); err != nil {
					return userError("update %q: %w", field, err)
				}

				// Leaving the command is an unload: pending changes are flushed
				// or the command fails with the unsaved-changes message.
				if allowed, msg := bus.RequestUnload(); !allowed {
					return sysError("%s", msg)
				}
				if o.Engine().State().HasUnsavedChanges {
					if err := o.Save(); err != nil {
						return sysError("save draft %q: %w", key, err)
					}
				}
				if a.flags.jsonMode {
					return a.printJSON(cmd.OutOrStdout(), o.Engine().State().Data)
				}
				writeLine(cmd.OutOrStdout(), "%s.%s %s", key, field, o.GetSaveStatus())
				return nil
			})
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Print the data of a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return a.withEngine(key, func(e *persist.Engine) error {
				if err := e.Load(); err != nil {
					return sysError("load draft %q: %w", key, err)
				}
				s := e.State()
				if s.Error != "" {
					return sysError("draft %q is unreadable: %s", key, s.Error)
				}
				if !s.HasSavedData {
					return userError("no saved draft for %q", key)
				}
				return a.printJSON(cmd.OutOrStdout(), s.Data)
			})
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <key>",
		Short: "Describe a saved draft without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return a.withEngine(key, func(e *persist.Engine) error {
				d := newDraftInfo(key, e.GetSavedDataInfo(), time.Now())
				if a.flags.jsonMode {
					return a.printJSON(cmd.OutOrStdout(), d)
				}
				if !d.HasData {
					writeLine(cmd.OutOrStdout(), "%s: no saved draft", key)
					return nil
				}
				writeLine(cmd.OutOrStdout(), "%s: saved %s (version %s)", key, d.Saved, d.Version)
				return nil
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st types.Store) error {
				keys, err := st.Keys(types.StorageKeyPrefix)
				if err != nil {
					return sysError("list drafts: %w", err)
				}
				now := time.Now()
				drafts := make([]draftInfo, 0, len(keys))
				for _, k := range keys {
					key, ok := types.FormKey(k)
					if !ok || key == "" {
						continue
					}
					var info types.SavedDataInfo
					err := a.useEngine(st, key, func(e *persist.Engine) error {
						info = e.GetSavedDataInfo()
						return nil
					})
					if err != nil {
						return err
					}
					if info.HasData {
						drafts = append(drafts, newDraftInfo(key, info, now))
					}
				}

				if a.flags.jsonMode {
					return a.printJSON(cmd.OutOrStdout(), drafts)
				}
				for _, d := range drafts {
					writeLine(cmd.OutOrStdout(), "%s\t%s", d.Key, d.Saved)
				}
				return nil
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <key>",
		Short: "Delete a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return a.withEngine(key, func(e *persist.Engine) error {
				if err := e.ClearData(); err != nil {
					return sysError("clear draft %q: %w", key, err)
				}
				writeLine(cmd.OutOrStdout(), "Draft %s cleared", key)
				return nil
			})
		},
	}
}

func newRecoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <key>",
		Short: "Ask whether to restore or discard a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			out := cmd.OutOrStdout()
			return a.withEngine(key, func(e *persist.Engine) error {
				info := e.GetSavedDataInfo()
				var m recovery.Model
				m.Show(info)
				if !m.IsVisible() {
					writeLine(out, "%s: no saved draft", key)
					return nil
				}
				if err := e.Load(); err != nil {
					return sysError("load draft %q: %w", key, err)
				}

				res, err := recovery.Prompt(&m, cmd.InOrStdin(), out, time.Now())
				if err != nil {
					return sysError("prompt: %w", err)
				}
				data, err := recovery.Resolve(res, e)
				if err != nil {
					return sysError("%s draft %q: %w", res, key, err)
				}

				switch res {
				case recovery.ResultRestore:
					writeLine(out, "Restored draft %s", key)
					return a.printJSON(out, data)
				case recovery.ResultStartFresh:
					writeLine(out, "Discarded draft %s", key)
				default:
					writeLine(out, "Decision deferred; draft %s kept", key)
				}
				return nil
			})
		},
	}
}
