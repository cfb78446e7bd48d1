package submission

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/publish"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

var ErrNothingToUpdate = errors.New("nothing to update")

type updateFlags struct {
	submissionID string
	patch        string
	packages     string
	metadata     string
}

func newUpdateCommand(ctx *cmd.CommandContext) *cobra.Command {
	flags := &updateFlags{}

	command := &cobra.Command{
		Use:   "update <productId>",
		Short: "Update a draft submission",
		Long:  `Update the draft submission of a product.

Packaged products take --patch, a JSON merge patch applied to the pending
submission. Unpackaged products take --packages and/or --metadata.
Each flag accepts inline JSON or a path to a JSON file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			t, err := resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if t.kind == domain.Unpackaged {
				return updateUnpackaged(c, ctx, t, flags)
			}
			return updatePackaged(c, ctx, t, flags)
		},
	}

	command.Flags().StringVar(&flags.submissionID, "submission-id", "", "Submission to update (packaged only; default: pending)")
	command.Flags().StringVar(&flags.patch, "patch", "", "JSON merge patch for a packaged submission")
	command.Flags().StringVar(&flags.packages, "packages", "", "Package set for an unpackaged product")
	command.Flags().StringVar(&flags.metadata, "metadata", "", "Listings, availability and properties for an unpackaged product")
	return command
}

func updatePackaged(c *cobra.Command, ctx *cmd.CommandContext, t *target, flags *updateFlags) error {
	if flags.packages != "" || flags.metadata != "" {
		return fmt.Errorf("--packages and --metadata apply to unpackaged products only; use --patch")
	}
	if flags.patch == "" {
		return fmt.Errorf("%w: pass --patch", ErrNothingToUpdate)
	}
	patch, err := cmd.ReadJSONInput(flags.patch)
	if err != nil {
		return err
	}

	api, err := t.packaged(c.Context(), ctx)
	if err != nil {
		return err
	}
	id, err := pendingSubmissionID(c.Context(), api, t.productID, flags.submissionID)
	if err != nil {
		return err
	}

	updated, err := publish.PatchSubmission(c.Context(), api, t.productID, id, patch)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("Updated submission %s", id)
	return t.renderer.Submission(updated)
}

func updateUnpackaged(c *cobra.Command, ctx *cmd.CommandContext, t *target, flags *updateFlags) error {
	if flags.patch != "" {
		return fmt.Errorf("--patch applies to packaged products only; use --packages or --metadata")
	}
	if flags.packages == "" && flags.metadata == "" {
		return fmt.Errorf("%w: pass --packages or --metadata", ErrNothingToUpdate)
	}

	var packages *storeapi.UpdatePackagesRequest
	if flags.packages != "" {
		packages = &storeapi.UpdatePackagesRequest{}
		if err := cmd.DecodeJSONInput(flags.packages, packages); err != nil {
			return err
		}
	}
	var metadata *storeapi.UpdateMetadataRequest
	if flags.metadata != "" {
		metadata = &storeapi.UpdateMetadataRequest{}
		if err := cmd.DecodeJSONInput(flags.metadata, metadata); err != nil {
			return err
		}
	}

	api, err := t.unpackaged(c.Context(), ctx)
	if err != nil {
		return err
	}

	if packages != nil {
		resp, err := api.UpdatePackages(c.Context(), t.productID, packages)
		if err != nil {
			return fmt.Errorf("failed to update packages: %w", err)
		}
		if _, err := resp.Data(); err != nil {
			return fmt.Errorf("failed to update packages: %w", err)
		}
		pterm.Success.Printfln("Updated %d package(s); run `msstore submission commit %s` to apply them", len(packages.Packages), t.productID)
	}

	if metadata != nil {
		resp, err := api.UpdateMetadata(c.Context(), t.productID, metadata)
		if err != nil {
			return fmt.Errorf("failed to update metadata: %w", err)
		}
		if _, err := resp.Data(); err != nil {
			return fmt.Errorf("failed to update metadata: %w", err)
		}
		pterm.Success.Println("Updated metadata")
	}
	return nil
}
