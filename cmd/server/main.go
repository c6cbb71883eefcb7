package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/qagate/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatal("server init failed: ", err)
	}

	ready, err := srv.Start()
	if err != nil {
		log.Fatal("server start failed: ", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exit := 0
	select {
	case <-sigChan:
	case err, failed := <-ready:
		if failed {
			log.Print(err)
			exit = 1
		} else {
			<-sigChan
		}
	}

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		log.Print("shutdown failed: ", err)
		exit = 1
	}
	os.Exit(exit)
}
