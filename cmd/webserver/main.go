//go:build linux
// +build linux

// Command webserver serves files from ./webroot over HTTP/1.0 with a single
// threaded epoll event loop.
//
//	webserver 127.0.0.1:8080
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/hodgesds/epollweb"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if _, ok := os.LookupEnv(epollweb.LogLevelEnv); !ok {
		os.Setenv(epollweb.LogLevelEnv, "debug")
	}
	log := epollweb.NewLogger(os.Stderr)

	fs := flag.NewFlagSet("webserver", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: webserver <host:port>\n")
	}
	if err := fs.Parse(args); err != nil {
		log.Error(err)
		return 1
	}
	if fs.NArg() != 1 {
		log.Error("wrong number of arguments")
		return 1
	}

	root, err := epollweb.DefaultDocumentRoot()
	if err != nil {
		log.Error(err)
		return 1
	}
	l, err := epollweb.Listen(fs.Arg(0))
	if err != nil {
		log.Error(err)
		return 1
	}
	r, err := epollweb.New(l, epollweb.StaticHandler(root, log), epollweb.WithLogger(log))
	if err != nil {
		l.Close()
		log.Error(err)
		return 1
	}
	defer r.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.WithField("signal", sig).Info("shutting down")
		if err := r.Stop(); err != nil {
			log.Error(err)
		}
	}()

	log.WithFields(logrus.Fields{
		"addr": r.Addr(),
		"root": root,
	}).Info("listening")
	if err := r.Run(); err != nil {
		log.Error(err)
		return 1
	}
	return 0
}
