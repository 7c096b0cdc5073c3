package main

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

func newRestClient() *resty.Client {
	c := resty.New().
		SetBaseURL(apiFlag).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if keyFlag != "" {
		c.SetAuthToken(keyFlag)
	}
	return c
}

// exec runs a prepared request and returns the body, turning non-2xx
// replies into errors the command surface can print.
func exec(req *resty.Request, method, url string) ([]byte, error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s %s: %s: %s", method, url, resp.Status(), resp.String())
	}
	return resp.Body(), nil
}
