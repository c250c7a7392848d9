package http

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Pandey-Krishant/Msgly/internal/config"
)

// IceServer mirrors the RTCIceServer shape clients feed to the browser.
type IceServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// TurnHandler vends STUN/TURN configuration for call setup. With a shared
// secret configured it issues coturn REST-style ephemeral credentials
// (username "<expiry>:<token>", credential base64(HMAC-SHA1(secret, username))).
func TurnHandler(cfg *config.TurnConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		servers := make([]IceServer, 0, 2)
		if len(cfg.STUNURLs) > 0 {
			servers = append(servers, IceServer{URLs: cfg.STUNURLs})
		}

		if len(cfg.TURNURLs) > 0 {
			turn := IceServer{URLs: cfg.TURNURLs}
			if cfg.Secret != "" {
				username, credential := ephemeralCredentials(cfg.Secret, cfg.TTL, c.GetString("client_token"), time.Now())
				turn.Username = username
				turn.Credential = credential
			} else {
				turn.Username = cfg.StaticUsername
				turn.Credential = cfg.StaticCredential
			}
			servers = append(servers, turn)
		}

		if len(servers) == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Missing TURN config",
			})
			return
		}

		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"iceServers": servers,
		})
	}
}

func ephemeralCredentials(secret string, ttl time.Duration, token string, now time.Time) (string, string) {
	username := fmt.Sprintf("%d:%s", now.Add(ttl).Unix(), token)
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(username))
	return username, base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
