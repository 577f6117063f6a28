package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
)

func runMatching(apiURL, eventID string, out io.Writer) error {
	return post(apiURL+"/api/events/"+url.PathEscape(eventID)+"/matching/run", out)
}

func runZones(apiURL, eventID string, force bool, out io.Writer) error {
	u := apiURL + "/api/events/" + url.PathEscape(eventID) + "/zones/run"
	if force {
		u += "?force=1"
	}
	return post(u, out)
}

func expireMatches(apiURL, eventID string, out io.Writer) error {
	return post(apiURL+"/api/events/"+url.PathEscape(eventID)+"/matches/expire", out)
}

func listMatches(apiURL, eventID, participantID string, out io.Writer) error {
	u := apiURL + "/api/events/" + url.PathEscape(eventID) + "/matches?participantId=" + url.QueryEscape(participantID)
	return get(u, out)
}

func listZones(apiURL, eventID string, out io.Writer) error {
	return get(apiURL+"/api/events/"+url.PathEscape(eventID)+"/zones", out)
}

func post(u string, out io.Writer) error {
	resp, err := http.Post(u, "application/json", nil)
	if err != nil {
		return err
	}
	return drain(resp, out)
}

func get(u string, out io.Writer) error {
	resp, err := http.Get(u)
	if err != nil {
		return err
	}
	return drain(resp, out)
}

func drain(resp *http.Response, out io.Writer) error {
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err := io.Copy(out, resp.Body)
	return err
}
