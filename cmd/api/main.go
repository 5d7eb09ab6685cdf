package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/httpapi"
	"photomosaic.app/internal/mail"
	"photomosaic.app/internal/media"
	"photomosaic.app/internal/obs"
	"photomosaic.app/internal/storage/s3"
	"photomosaic.app/internal/store/pg"
)

var version = "0.3.0"

func main() {
	obs.Init()

	secret := os.Getenv("MOSAIC_AUTH_SECRET")
	if secret == "" {
		log.Fatal("MOSAIC_AUTH_SECRET is required")
	}

	dsn := os.Getenv("MOSAIC_PG_DSN")
	if dsn == "" {
		log.Fatal("MOSAIC_PG_DSN is required")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("ensure schema: %v", err)
	}
	cancel()

	authSvc, err := auth.NewService(auth.Config{Secret: []byte(secret)}, store)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	blobs, err := s3.New(context.Background(), s3.Config{
		Region:      os.Getenv("MOSAIC_S3_REGION"),
		Bucket:      os.Getenv("MOSAIC_S3_BUCKET"),
		AccessKeyID: os.Getenv("MOSAIC_S3_ACCESS_KEY"),
		SecretKey:   os.Getenv("MOSAIC_S3_SECRET_KEY"),
		Endpoint:    os.Getenv("MOSAIC_S3_ENDPOINT"),
		ExternalURL: os.Getenv("MOSAIC_S3_EXTERNAL_URL"),
	})
	if err != nil {
		log.Fatalf("blob storage: %v", err)
	}

	mediaSvc, err := media.NewService(store, blobs)
	if err != nil {
		log.Fatalf("media service: %v", err)
	}

	mailer, err := mail.NewPostmarkSender(mail.PostmarkConfig{
		ServerToken:  os.Getenv("MOSAIC_POSTMARK_SERVER_TOKEN"),
		AccountToken: os.Getenv("MOSAIC_POSTMARK_ACCOUNT_TOKEN"),
		From:         os.Getenv("MOSAIC_MAIL_FROM"),
	})
	if err != nil {
		log.Fatalf("mail sender: %v", err)
	}

	api := httpapi.New(httpapi.Config{
		Auth:        authSvc,
		Users:       store,
		Media:       mediaSvc,
		Mailer:      mailer,
		FrontendURL: os.Getenv("MOSAIC_FRONTEND_URL"),
		ReadyProbe:  httpapi.ReadyProbe{DB: store.DB()},
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           api.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting photomosaic-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = store.Close()
	log.Println("Stopped")
}
