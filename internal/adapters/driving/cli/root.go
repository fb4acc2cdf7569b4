// Package cli wires the commands: login/logout/whoami for the session, admin
// for the interactive pages, list/get/rm for scripted access, upload for
// one-off assets and serve for the development backend.
package cli

import (
	"fmt"
	"log"
	"os"

	"agencyctl/internal/adapters/driven/localstore"
	"agencyctl/internal/adapters/driven/restapi"
	"agencyctl/internal/adapters/driven/session"
	"agencyctl/internal/config"
	"agencyctl/internal/core/domain"
	"agencyctl/internal/core/registry"
	"agencyctl/internal/core/service/resource"

	"github.com/spf13/cobra"
)

// app carries the shared wiring every command needs. Built once in Execute,
// before any RunE fires.
type app struct {
	cfg    *config.Config
	reg    *registry.Registry
	sess   *session.Store
	client *restapi.Client
}

// gatewayFor returns the right backend for a resource: REST for everything
// the CMS stores, the local JSON file for resources that never leave this
// machine.
func (a *app) gatewayFor(desc domain.Descriptor) resource.Gateway {
	if desc.LocalOnly {
		return localstore.New(desc, a.cfg.DataDir)
	}
	return restapi.NewGateway(a.client, desc)
}

func (a *app) storeFor(desc domain.Descriptor, notify resource.Notifier) *resource.Store {
	return resource.NewStore(desc, a.gatewayFor(desc), notify)
}

// lookup resolves a resource name argument, listing the valid names on a miss.
func (a *app) lookup(name string) (domain.Descriptor, error) {
	desc, ok := a.reg.Lookup(name)
	if !ok {
		return domain.Descriptor{}, fmt.Errorf("unknown resource %q (known: %v)", name, a.reg.Names())
	}
	return desc, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "agencyctl",
		Short:         "Terminal admin client for the agency CMS",
		Long:          "agencyctl manages the agency site's content - blogs, careers, partners, team, courses and the rest - from the terminal, against the same REST backend the web admin uses.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newAdminCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newRmCmd(a),
		newUploadCmd(a),
		newServeCmd(a),
		newResourcesCmd(a),
	)

	return root
}

// Execute builds the shared wiring and runs the command tree. It is the only
// function main needs.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	reg, err := registry.Load()
	if err != nil {
		log.Fatalf("FATAL: could not load resource registry: %v", err)
	}

	sess, err := session.Open(cfg.SessionFile)
	if err != nil {
		log.Fatalf("FATAL: could not open session: %v", err)
	}

	client := restapi.NewClient(
		cfg.APIBaseURL,
		sess,
		restapi.WithTimeout(cfg.HTTPTimeout),
		restapi.WithUnauthorizedHook(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run `agencyctl login` to sign in again.")
		}),
	)

	a := &app{cfg: cfg, reg: reg, sess: sess, client: client}

	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
