package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"realty-crm/internal/auth"
	"realty-crm/internal/rbac"
)

func tokenCmd() *cobra.Command {
	var userID, role, refresh string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token pair, or exchange a refresh token for a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.Context(), false, false)
			if err != nil {
				return err
			}
			defer e.Close()

			m, err := auth.NewManager(e.cfg.Auth)
			if err != nil {
				return err
			}
			return mintTokens(cmd.OutOrStdout(), m, time.Now(), userID, role, refresh)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "operator user id")
	cmd.Flags().StringVar(&role, "role", rbac.RoleAgent, "operator role (admin, agent, viewer)")
	cmd.Flags().StringVar(&refresh, "refresh", "", "refresh token to exchange instead of minting for --user")
	return cmd
}

func mintTokens(w io.Writer, m *auth.Manager, now time.Time, userID, role, refresh string) error {
	switch role {
	case rbac.RoleAdmin, rbac.RoleAgent, rbac.RoleViewer:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	var (
		pair auth.TokenPair
		err  error
	)
	if refresh != "" {
		pair, err = m.Refresh(refresh, role, now)
	} else {
		if strings.TrimSpace(userID) == "" {
			return errors.New("--user or --refresh is required")
		}
		pair, err = m.IssuePair(now, strings.TrimSpace(userID), role)
	}
	if err != nil {
		return fmt.Errorf("issue tokens: %w", err)
	}
	return json.NewEncoder(w).Encode(struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}{pair.AccessToken, pair.RefreshToken})
}
