package submission

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gillisandrew/msstore-cli/internal/cmd"
	"github.com/gillisandrew/msstore-cli/internal/domain"
	"github.com/gillisandrew/msstore-cli/internal/publish"
	"github.com/gillisandrew/msstore-cli/internal/storeapi"
)

type publishFlags struct {
	replace  bool
	noWait   bool
	patch    string
	packages string
	metadata string
}

func newPublishCommand(ctx *cmd.CommandContext) *cobra.Command {
	flags := &publishFlags{}

	command := &cobra.Command{
		Use:   "publish <productId>",
		Short: "Create, commit and follow a submission end to end",
		Long:  `Publish a new submission.

Packaged products: a submission is cloned from the last published one,
optionally patched with --patch, committed and polled until certification
finishes. An existing pending submission is deleted first with --replace.

Unpackaged products: --packages and --metadata update the draft, the
product is polled until ready, then the submission is created and polled
until it is published.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			t, err := resolve(ctx, args[0])
			if err != nil {
				return err
			}
			if t.kind == domain.Unpackaged {
				return publishUnpackaged(c, ctx, t, flags)
			}
			return publishPackaged(c, ctx, t, flags)
		},
	}

	command.Flags().BoolVar(&flags.replace, "replace", false, "Delete an existing pending submission first (packaged only)")
	command.Flags().BoolVar(&flags.noWait, "no-wait", false, "Return after committing without polling")
	command.Flags().StringVar(&flags.patch, "patch", "", "JSON merge patch applied to the new packaged submission")
	command.Flags().StringVar(&flags.packages, "packages", "", "Package set for an unpackaged product")
	command.Flags().StringVar(&flags.metadata, "metadata", "", "Listings, availability and properties for an unpackaged product")
	return command
}

func publishPackaged(c *cobra.Command, ctx *cmd.CommandContext, t *target, flags *publishFlags) error {
	if flags.packages != "" || flags.metadata != "" {
		return fmt.Errorf("--packages and --metadata apply to unpackaged products only; use --patch")
	}
	req := publish.PackagedRequest{ProductID: t.productID, Replace: flags.replace}
	if flags.patch != "" {
		patch, err := cmd.ReadJSONInput(flags.patch)
		if err != nil {
			return err
		}
		req.Patch = patch
	}

	api, err := t.packaged(c.Context(), ctx)
	if err != nil {
		return err
	}

	onEvent, stop := ctx.Progress("Publishing " + t.productID)
	opts := ctx.PublishOpts(t.cfg).WithProgress(onEvent).WithNoWait(flags.noWait)

	result, err := publish.PublishPackaged(c.Context(), api, req, opts)
	if err != nil {
		stop(err, "Publish failed")
		return err
	}
	if flags.noWait {
		stop(nil, "Committed submission "+result.SubmissionID)
		pterm.Info.Printfln("Run `msstore submission poll %s --submission-id %s` to follow certification", t.productID, result.SubmissionID)
		return nil
	}
	return finishPackaged(t, result, stop)
}

func publishUnpackaged(c *cobra.Command, ctx *cmd.CommandContext, t *target, flags *publishFlags) error {
	if flags.patch != "" || flags.replace {
		return fmt.Errorf("--patch and --replace apply to packaged products only")
	}
	req := publish.UnpackagedRequest{ProductID: t.productID}
	if flags.packages != "" {
		req.Packages = &storeapi.UpdatePackagesRequest{}
		if err := cmd.DecodeJSONInput(flags.packages, req.Packages); err != nil {
			return err
		}
	}
	if flags.metadata != "" {
		req.Metadata = &storeapi.UpdateMetadataRequest{}
		if err := cmd.DecodeJSONInput(flags.metadata, req.Metadata); err != nil {
			return err
		}
	}

	api, err := t.unpackaged(c.Context(), ctx)
	if err != nil {
		return err
	}

	onEvent, stop := ctx.Progress("Publishing " + t.productID)
	opts := ctx.PublishOpts(t.cfg).WithProgress(onEvent).WithNoWait(flags.noWait)

	result, err := publish.PublishUnpackaged(c.Context(), api, req, opts)
	if err != nil {
		stop(err, "Publish failed")
		return err
	}
	if flags.noWait {
		stop(nil, "Created submission "+result.SubmissionID)
		return nil
	}
	return finishUnpackaged(t, result, stop)
}
