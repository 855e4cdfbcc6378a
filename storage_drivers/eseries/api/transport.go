// Copyright 2025 NetApp, Inc. All Rights Reserved.

package api

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	mapperconfig "github.com/netapp/eseries-mapper/config"
	"github.com/netapp/eseries-mapper/utils"
)

const transportMaxRetries = 3

// webProxyTransport issues REST calls against the Web Services Proxy. It knows about a primary
// endpoint and an optional alternate endpoint and fails over between them when a call cannot
// reach the proxy at the transport level. HTTP error statuses are not failover triggers; those
// come from the proxy itself and would be the same on either endpoint.
type webProxyTransport struct {
	endpoints       []string
	active          int
	mutex           sync.Mutex
	httpClient      *http.Client
	username        string
	password        string
	debugTraceFlags map[string]bool
}

func newWebProxyTransport(config *ClientConfig) *webProxyTransport {

	// Default to secure connection
	scheme, port := "https", "8443"

	// Allow insecure override
	if config.WebProxyUseHTTP {
		scheme, port = "http", "8080"
	}

	// Allow port override
	if config.WebProxyPort != "" {
		port = config.WebProxyPort
	}

	endpoints := []string{scheme + "://" + config.WebProxyHostname + ":" + port}
	if config.WebProxyAltHostname != "" {
		endpoints = append(endpoints, scheme+"://"+config.WebProxyAltHostname+":"+port)
	}

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !config.WebProxyVerifyTLS, // Allow certificate validation override
		},
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = mapperconfig.StorageAPITimeoutSeconds
	}

	return &webProxyTransport{
		endpoints: endpoints,
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   time.Duration(timeout) * time.Second,
		},
		username:        config.Username,
		password:        config.Password,
		debugTraceFlags: config.DebugTraceFlags,
	}
}

func (t *webProxyTransport) activeEndpoint() string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.endpoints[t.active]
}

// failover switches to the other proxy endpoint, if one was configured.
func (t *webProxyTransport) failover() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if len(t.endpoints) < 2 {
		return
	}

	previous := t.endpoints[t.active]
	t.active = (t.active + 1) % len(t.endpoints)

	log.WithFields(log.Fields{
		"previousEndpoint": previous,
		"activeEndpoint":   t.endpoints[t.active],
	}).Warn("Failing over to alternate Web Services Proxy endpoint.")
}

// Invoke sends a single REST request to the Web Services Proxy, retrying with the alternate
// endpoint on transport failures. The caller supplies the resource path below the endpoint root,
// such as "/devmgr/v2/storage-systems".
func (t *webProxyTransport) Invoke(requestBody []byte, method, resourcePath string) (
	*http.Response, []byte, error,
) {
	var response *http.Response
	var responseBody []byte

	attempt := func() error {
		var err error
		response, responseBody, err = t.invokeOnce(requestBody, method, resourcePath)
		if err != nil {
			t.failover()
		}
		return err
	}
	notify := func(err error, duration time.Duration) {
		log.WithFields(log.Fields{
			"method":    method,
			"path":      resourcePath,
			"increment": duration,
			"error":     err,
		}).Debug("Could not reach Web Services Proxy, retrying.")
	}

	retryBackoff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), transportMaxRetries)
	if err := backoff.RetryNotify(attempt, retryBackoff, notify); err != nil {
		return nil, nil, fmt.Errorf("could not reach Web Services Proxy: %v", err)
	}

	return response, responseBody, nil
}

func (t *webProxyTransport) invokeOnce(requestBody []byte, method, resourcePath string) (
	*http.Response, []byte, error,
) {
	url := t.activeEndpoint() + resourcePath

	var request *http.Request
	var err error
	var prettyRequestBuffer bytes.Buffer
	var prettyResponseBuffer bytes.Buffer

	if requestBody == nil {
		request, err = http.NewRequest(method, url, nil)
	} else {
		request, err = http.NewRequest(method, url, bytes.NewBuffer(requestBody))
	}
	if err != nil {
		return nil, nil, err
	}

	request.Header.Set("Content-Type", "application/json")
	request.SetBasicAuth(t.username, t.password)

	if t.debugTraceFlags["api"] {
		if method == "POST" && resourcePath == connectPath && !t.debugTraceFlags["sensitive"] {
			// Suppress the connect body since it contains the array password
			utils.LogHTTPRequest(request, []byte("<suppressed>"))
		} else {
			json.Indent(&prettyRequestBuffer, requestBody, "", "  ")
			utils.LogHTTPRequest(request, prettyRequestBuffer.Bytes())
		}
	}

	response, err := t.httpClient.Do(request)
	if err != nil {
		log.Warnf("Error communicating with Web Services Proxy. %v", err)
		return nil, nil, err
	}
	defer response.Body.Close()

	responseBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return nil, nil, err
	}

	if t.debugTraceFlags["api"] {
		json.Indent(&prettyResponseBuffer, responseBody, "", "  ")
		utils.LogHTTPResponse(response, prettyResponseBuffer.Bytes())
	}

	return response, responseBody, nil
}
