// Package storage keeps uploaded item and container images.
//
// Store is the single contract handlers depend on. Three backends
// implement it:
//
//   - LocalStore writes below a directory through afero, addressed as
//     <public_url>/uploads/<key>.
//   - S3Store uses the AWS SDK against one bucket.
//   - MinioStore uses the MinIO client against an S3-compatible server and
//     creates its bucket on startup.
//
// Every upload lands under images/<uuid>/<filename>, and Delete only accepts
// URLs the same store issued.
//
// # Usage
//
//	store, err := storage.NewStore(ctx, cfg.Storage, cfg.Server.PublicURL)
//	url, err := store.Upload(ctx, data, "cable.png", "image/png")
package storage
