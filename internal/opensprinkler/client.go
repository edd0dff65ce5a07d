// Package opensprinkler is a thin client for the OpenSprinkler HTTP API.
//
// Every endpoint is a single GET authenticated by an md5 hex digest of the
// device password in the pw query parameter. The device pairs /jn (station
// names, key "snames") with /js (station states, key "sn"); both lists are
// in device index order, but the state list may legitimately be shorter than
// the name list, so callers must bounds-check rather than assume alignment.
//
// Transport and HTTP failures collapse to empty or false results. Callers
// own the policy for what a failed call means; the client only logs it.
package opensprinkler

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const requestTimeout = 10 * time.Second

type Client struct {
	baseURL      string
	passwordHash string
	http         *http.Client
}

func New(host string, port int, password string) *Client {
	sum := md5.Sum([]byte(password))
	return &Client{
		baseURL:      fmt.Sprintf("http://%s:%d", host, port),
		passwordHash: hex.EncodeToString(sum[:]),
		http:         &http.Client{Timeout: requestTimeout},
	}
}

// StationNames returns all station names in device index order, unfiltered.
// Returns nil if the device is unreachable or responds with an error.
func (c *Client) StationNames() []string {
	var body struct {
		Names []string `json:"snames"`
	}
	if !c.getJSON("/jn", &body) {
		return nil
	}
	return body.Names
}

// StationStates returns the on/off state of each station in device index
// order. The device may report fewer state bits than it has names.
func (c *Client) StationStates() []bool {
	var body struct {
		States []int `json:"sn"`
	}
	if !c.getJSON("/js", &body) {
		return nil
	}
	states := make([]bool, len(body.States))
	for i, s := range body.States {
		states[i] = s != 0
	}
	return states
}

// Activate turns on a station by device index for the given number of
// seconds. Returns false on any transport or HTTP failure.
func (c *Client) Activate(deviceIndex, durationSeconds int) bool {
	return c.get(fmt.Sprintf("/cm?pw=%s&sid=%d&en=1&t=%d", c.passwordHash, deviceIndex, durationSeconds))
}

// Deactivate turns off a station by device index.
func (c *Client) Deactivate(deviceIndex int) bool {
	return c.get(fmt.Sprintf("/cm?pw=%s&sid=%d&en=0", c.passwordHash, deviceIndex))
}

// Snapshot returns the device's full state blob from /ja, unparsed. Intended
// for display passthrough only.
func (c *Client) Snapshot() map[string]json.RawMessage {
	var body map[string]json.RawMessage
	if !c.getJSON("/ja", &body) {
		return map[string]json.RawMessage{}
	}
	return body
}

func (c *Client) getJSON(path string, out any) bool {
	resp, err := c.http.Get(c.baseURL + path + "?pw=" + c.passwordHash)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("OpenSprinkler request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("OpenSprinkler returned non-success status")
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to decode OpenSprinkler response")
		return false
	}
	return true
}

func (c *Client) get(pathAndQuery string) bool {
	resp, err := c.http.Get(c.baseURL + pathAndQuery)
	if err != nil {
		log.Warn().Err(err).Msg("OpenSprinkler command failed")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
