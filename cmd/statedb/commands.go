package main

import (
	"fmt"
	"strconv"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/NethermindEth/statedb/storage"
	"github.com/NethermindEth/statedb/utils"
	"github.com/NethermindEth/statedb/validator"
	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	blockF   = "block"
	fileF    = "file"
	dumpF    = "dump"
	addressF = "address"
	keyF     = "key"
)

// pointQuery holds the arguments of the point-in-time read commands.
type pointQuery struct {
	Address string           `validate:"required,felt_hex"`
	Key     string           `validate:"omitempty,felt_hex"`
	Block   core.BlockNumber `validate:"block_number"`
	// Latest is set when no block was given.
	Latest bool
}

func blockFlag(cmd *cobra.Command) (core.BlockNumber, error) {
	block, err := cmd.Flags().GetUint64(blockF)
	if err != nil {
		return 0, err
	}
	if err = validator.Validator().Var(block, "block_number"); err != nil {
		return 0, fmt.Errorf("--%s %d: %w", blockF, block, err)
	}
	return core.BlockNumber(block), nil
}

func (a *app) markersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "markers",
		Short: "Print the markers and blob file offsets",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			s, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { err = utils.RunAndWrapOnError(s.Close, err) }()

			var markers, offsets [][]string
			if err = s.View(func(txn *storage.ReadTxn) error {
				for _, kind := range core.MarkerKinds() {
					block, err := txn.Marker(kind)
					if err != nil {
						return err
					}
					markers = append(markers, []string{kind.String(), block.String()})
				}
				for _, kind := range core.OffsetKinds() {
					offset, err := txn.FileOffset(kind)
					if err != nil {
						return err
					}
					offsets = append(offsets, []string{kind.String(), strconv.FormatUint(offset, 10)})
				}
				return nil
			}); err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Marker", "Next block"})
			table.AppendBulk(markers)
			table.Render()

			tableOffsets := tablewriter.NewWriter(cmd.OutOrStdout())
			tableOffsets.SetHeader([]string{"File", "Offset"})
			tableOffsets.AppendBulk(offsets)
			tableOffsets.Render()
			return nil
		},
	}
}

func (a *app) appendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append a YAML state diff as the next block",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			block, err := blockFlag(cmd)
			if err != nil {
				return err
			}
			path, err := cmd.Flags().GetString(fileF)
			if err != nil {
				return err
			}
			diff, err := readDiffFile(path)
			if err != nil {
				return err
			}

			s, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { err = utils.RunAndWrapOnError(s.Close, err) }()

			if err = s.Update(func(txn *storage.WriteTxn) error {
				return txn.AppendStateDiff(block, diff)
			}); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "appended block %d (%d entries)\n", block, diff.Length())
			return err
		},
	}
	cmd.Flags().Uint64(blockF, 0, "Block the diff belongs to. Must be the state marker.")
	cmd.Flags().String(fileF, "", "YAML state diff.")
	_ = cmd.MarkFlagRequired(blockF)
	_ = cmd.MarkFlagRequired(fileF)
	return cmd
}

func (a *app) revertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Revert the last stored block",
		Long:  `Removes the state diff of the block right below the state marker and prints what was removed. Any other block is left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			block, err := blockFlag(cmd)
			if err != nil {
				return err
			}

			s, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { err = utils.RunAndWrapOnError(s.Close, err) }()

			var reverted *core.RevertedStateDiff
			if err = s.Update(func(txn *storage.WriteTxn) error {
				reverted, err = txn.RevertStateDiff(block)
				return err
			}); err != nil {
				return err
			}
			if reverted == nil {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "block %d is not the last stored block, nothing reverted\n", block)
				return err
			}
			return writeYAML(cmd.OutOrStdout(), toRevertedYAML(reverted))
		},
	}
	cmd.Flags().Uint64(blockF, 0, "Block to revert.")
	_ = cmd.MarkFlagRequired(blockF)
	return cmd
}

func (a *app) stateDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state-diff",
		Short: "Print the stored state diff of a block",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			block, err := blockFlag(cmd)
			if err != nil {
				return err
			}
			dump, err := cmd.Flags().GetBool(dumpF)
			if err != nil {
				return err
			}

			s, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { err = utils.RunAndWrapOnError(s.Close, err) }()

			var diff *core.StateDiff
			if err = s.View(func(txn *storage.ReadTxn) error {
				diff, err = txn.StateDiff(block)
				return err
			}); err != nil {
				return err
			}
			if diff == nil {
				return fmt.Errorf("no state diff stored for block %d", block)
			}

			if dump {
				spew.Fdump(cmd.OutOrStdout(), diff)
				return nil
			}
			return writeYAML(cmd.OutOrStdout(), toYAML(diff))
		},
	}
	cmd.Flags().Uint64(blockF, 0, "Block number.")
	cmd.Flags().Bool(dumpF, false, "Dump the decoded Go value instead of YAML.")
	_ = cmd.MarkFlagRequired(blockF)
	return cmd
}

func pointFlags(cmd *cobra.Command, withKey bool) {
	cmd.Flags().String(addressF, "", "Contract address.")
	if withKey {
		cmd.Flags().String(keyF, "", "Storage key.")
		_ = cmd.MarkFlagRequired(keyF)
	}
	cmd.Flags().Uint64(blockF, 0, "Read the state right after this block. Defaults to the latest state.")
	_ = cmd.MarkFlagRequired(addressF)
}

func parsePointQuery(cmd *cobra.Command) (*pointQuery, error) {
	q := new(pointQuery)
	var err error
	if q.Address, err = cmd.Flags().GetString(addressF); err != nil {
		return nil, err
	}
	if cmd.Flags().Lookup(keyF) != nil {
		if q.Key, err = cmd.Flags().GetString(keyF); err != nil {
			return nil, err
		}
	}
	block, err := cmd.Flags().GetUint64(blockF)
	if err != nil {
		return nil, err
	}
	q.Block = core.BlockNumber(block)
	q.Latest = !cmd.Flags().Changed(blockF)

	if err = validator.Validator().Struct(q); err != nil {
		return nil, err
	}
	return q, nil
}

// state resolves the queried state number, the latest one being the State marker.
func (q *pointQuery) state(txn *storage.ReadTxn) (core.StateNumber, error) {
	if !q.Latest {
		return core.RightAfterBlock(q.Block), nil
	}
	marker, err := txn.StateMarker()
	if err != nil {
		return 0, err
	}
	return core.RightBeforeBlock(marker), nil
}

// pointRead runs read against the queried state and prints its result.
func (a *app) pointRead(cmd *cobra.Command, read func(*storage.StateReader, core.StateNumber, *pointQuery) (string, error)) (err error) {
	q, err := parsePointQuery(cmd)
	if err != nil {
		return err
	}

	s, err := a.openStorage()
	if err != nil {
		return err
	}
	defer func() { err = utils.RunAndWrapOnError(s.Close, err) }()

	var out string
	if err = s.View(func(txn *storage.ReadTxn) error {
		state, err := q.state(txn)
		if err != nil {
			return err
		}
		out, err = read(txn.StateReader(), state, q)
		return err
	}); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func (a *app) storageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Read a storage value at a state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.pointRead(cmd, func(r *storage.StateReader, state core.StateNumber, q *pointQuery) (string, error) {
				addr, err := parseHex[felt.Address](q.Address)
				if err != nil {
					return "", err
				}
				key, err := parseHex[felt.StorageKey](q.Key)
				if err != nil {
					return "", err
				}
				value, err := r.StorageAt(state, addr, key)
				if err != nil {
					return "", err
				}
				return value.String(), nil
			})
		},
	}
	pointFlags(cmd, true)
	return cmd
}

func (a *app) nonceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nonce",
		Short: "Read the nonce of a contract at a state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.pointRead(cmd, func(r *storage.StateReader, state core.StateNumber, q *pointQuery) (string, error) {
				addr, err := parseHex[felt.Address](q.Address)
				if err != nil {
					return "", err
				}
				nonce, found, err := r.NonceAt(state, addr)
				if err != nil || !found {
					return "not deployed", err
				}
				return nonce.String(), nil
			})
		},
	}
	pointFlags(cmd, false)
	return cmd
}

func (a *app) classHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "class-hash",
		Short: "Read the class hash of a contract at a state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.pointRead(cmd, func(r *storage.StateReader, state core.StateNumber, q *pointQuery) (string, error) {
				addr, err := parseHex[felt.Address](q.Address)
				if err != nil {
					return "", err
				}
				classHash, found, err := r.ClassHashAt(state, addr)
				if err != nil || !found {
					return "not deployed", err
				}
				return classHash.String(), nil
			})
		},
	}
	pointFlags(cmd, false)
	return cmd
}
