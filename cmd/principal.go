/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/types"
)

// principalFromConfig returns the CLI user. PLATFORM_USER_ID wins; without
// it the subject of PLATFORM_TOKEN is used. The token is not verified here,
// the platform does that on every request.
func principalFromConfig(cfg config.PlatformConfig) (types.Principal, error) {
	principal := types.Principal{UserID: cfg.UserID, Token: cfg.Token}
	if principal.SignedIn() || cfg.Token == "" {
		return principal, nil
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cfg.Token, &claims); err != nil {
		return types.Principal{}, errors.New("PLATFORM_TOKEN is not a JWT; set PLATFORM_USER_ID")
	}
	principal.UserID = strings.TrimSpace(claims.Subject)
	return principal, nil
}
