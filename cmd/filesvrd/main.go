/*
Filesvrd is a standalone HTTP server that serves a directory tree straight
off disk, with Range and conditional-request support.
*/
package main

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	filesvr "github.com/coreserve/filesvr"
	"github.com/coreserve/filesvr/internal/fsopen"
	"github.com/coreserve/filesvr/internal/handling"
	"github.com/coreserve/filesvr/internal/statcache"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "filesvrd <root-dir>",
	Short: "filesvrd serves a directory tree over HTTP(S)",
	Long: `filesvrd serves files directly from a directory, with support for
Range and multipart/byteranges requests, If-Modified-Since, and an
optional YAML file naming paths to hide or to serve gzip-aliased.

In order to use HTTPS, specify the --key (or -k) flag. This should name a
PEM-encoded key file. This file may also contain the certificate; if not,
pass the --cert (or -c) flag in addition.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func main() {
	rootCmd.Flags().StringP("bind", "b", ":8080",
		"Address to listen on / bind to")
	rootCmd.Flags().StringP("key", "k", "",
		"Path to PEM-encoded HTTPS key")
	rootCmd.Flags().StringP("cert", "c", "",
		"Path to PEM-encoded HTTPS cert")
	rootCmd.Flags().StringSliceP("header", "H", nil,
		"Extra headers; use flag once for each, in form -H header=value")
	rootCmd.Flags().String("header-file", "",
		"Path to text file containing one line for each header=value to add")
	rootCmd.Flags().String("handling", "",
		"Path to a YAML file of hide/gzip-alias rules")
	rootCmd.Flags().String("stat-cache", "",
		"Path to a stat cache file; empty disables the cache")
	rootCmd.Flags().Duration("expiry", 0,
		"Tell client how long it can cache data for; 0 means no caching")
	rootCmd.Flags().String("log-level", "info",
		"Logging level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cobra.Command, args []string) error {
	if level, err := c.Flags().GetString("log-level"); err == nil {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			log.SetLevel(parsed)
		}
	}

	bindAddr, err := c.Flags().GetString("bind")
	if err != nil {
		return err
	}

	keyFile, err := c.Flags().GetString("key")
	if err != nil {
		return err
	}
	certFile, err := c.Flags().GetString("cert")
	if err != nil {
		return err
	}
	switch {
	case keyFile == "" && certFile == "":
		// nothing to do
	case keyFile == "":
		return errors.New("cannot specify --cert without --key")
	case certFile == "":
		certFile = keyFile
	}

	extraHeaders := make(http.Header)
	hdrs, err := c.Flags().GetStringSlice("header")
	if err != nil {
		return err
	}
	for _, hdr := range hdrs {
		pos := strings.IndexRune(hdr, '=')
		if pos == -1 {
			return fmt.Errorf("header %q must be in form name=value", hdr)
		}
		extraHeaders.Add(hdr[:pos], hdr[pos+1:])
	}

	hdrfile, err := c.Flags().GetString("header-file")
	if err != nil {
		return err
	}
	if err := loadHeaderFile(hdrfile, extraHeaders); err != nil {
		return fmt.Errorf("--header-file: %w", err)
	}

	expiry, err := c.Flags().GetDuration("expiry")
	if err != nil {
		return err
	}
	if expiry <= 0 {
		extraHeaders.Set("Cache-Control", "no-store")
	} else {
		extraHeaders.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int64(expiry.Seconds())))
	}

	handlingPath, err := c.Flags().GetString("handling")
	if err != nil {
		return err
	}
	var policy *handling.Policy
	if handlingPath != "" {
		policy, err = handling.Load(handlingPath)
		if err != nil {
			return fmt.Errorf("--handling: %w", err)
		}
	}

	root := args[0]
	dirOpener, err := fsopen.NewDirOpener(root, fsopen.Options{})
	if err != nil {
		return fmt.Errorf("%s: %w", root, err)
	}
	var opener fsopen.Opener = dirOpener

	statCachePath, err := c.Flags().GetString("stat-cache")
	if err != nil {
		return err
	}
	if statCachePath != "" {
		cache, err := statcache.Open(statCachePath)
		if err != nil {
			return fmt.Errorf("--stat-cache: %w", err)
		}
		opener = statcache.Wrap(dirOpener, cache, log)
		defer func() {
			if err := cache.Flush(); err != nil {
				log.WithError(err).Warn("failed to flush stat cache")
			}
		}()
	}

	handler := filesvr.NewHandler(opener, policy, log)
	wrapped := &addHeaders{extraHeaders: extraHeaders, handler: handler}

	mux := http.NewServeMux()
	mux.Handle("/", wrapped)

	log.WithFields(logrus.Fields{"root": root, "bind": bindAddr}).Info("starting server")

	if keyFile == "" {
		err = http.ListenAndServe(bindAddr, mux)
	} else {
		err = http.ListenAndServeTLS(bindAddr, certFile, keyFile, mux)
	}
	if err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
	return nil
}

func loadHeaderFile(hdrfile string, extraHeaders http.Header) error {
	if hdrfile == "" {
		return nil
	}

	f, err := os.Open(hdrfile)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lineNum int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" {
			continue
		}

		pos := strings.IndexRune(line, '=')
		if pos == -1 {
			return fmt.Errorf("%s: line %d: not in form header=value", hdrfile, lineNum)
		}
		extraHeaders.Add(line[:pos], line[pos+1:])
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", hdrfile, err)
	}
	return nil
}

type addHeaders struct {
	extraHeaders http.Header
	handler      http.Handler
}

func (ah *addHeaders) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for name, values := range ah.extraHeaders {
		w.Header()[name] = append(w.Header()[name], values...)
	}
	ah.handler.ServeHTTP(w, r)
}
