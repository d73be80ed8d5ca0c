package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/rental-contracts/internal/client"
	"github.com/iliyamo/rental-contracts/internal/store"
)

const defaultAPIURL = "http://localhost:8080/v1"

// session is the client state of one command run: a store seeded with
// RENT_API_TOKEN and a client for RENT_API_URL reading its token.
type session struct {
	st  *store.Store
	api *client.Client
	ui  *terminalPresenter
	log *logrus.Logger
}

func openSession(cmd *cobra.Command) *session {
	st := store.New()
	st.Dispatch(store.SessionStarted{Token: os.Getenv("RENT_API_TOKEN")})

	baseURL := os.Getenv("RENT_API_URL")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	return &session{
		st:  st,
		api: client.New(baseURL, st),
		ui:  &terminalPresenter{out: cmd.OutOrStdout()},
		log: log,
	}
}

func (s *session) contractFlow() *client.ContractFlow {
	f := client.NewContractFlow(s.api, s.ui, s.st)
	f.Log = s.log
	return f
}

// close forgets the token and cached contracts, then stops the store.
func (s *session) close() {
	s.st.Dispatch(store.SessionCleared{})
	s.st.Close()
}
