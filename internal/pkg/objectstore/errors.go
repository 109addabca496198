package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// UploadError is a failed upload of one file.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// CORSError is an upload the browser could not send to the bucket, which in
// practice always means the bucket's CORS policy does not allow this site.
type CORSError struct {
	UploadError
	Bucket string
}

func (e *CORSError) Error() string {
	return fmt.Sprintf("upload %s blocked by bucket CORS policy: %v", e.Key, e.Err)
}

func (e *CORSError) Unwrap() error {
	return &e.UploadError
}

// Remediation tells the photographer how to fix the bucket.
func (e *CORSError) Remediation() string {
	return fmt.Sprintf("Could not reach the storage bucket, most likely a CORS problem.\n\n"+
		"Fix: open the Cloudflare dashboard > R2 > bucket '%s' > Settings > CORS Policy "+
		"and add AllowedOrigins: [\"*\"], AllowedMethods: [\"PUT\", \"GET\", \"DELETE\"].", e.Bucket)
}

// DeleteError is a failed delete. Callers log it and carry on.
type DeleteError struct {
	Key string
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Key, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// ClassifyBrowserFailure turns the error a browser reported for a direct
// upload into an UploadError or a CORSError. Browsers report blocked
// cross-origin requests as a TypeError "Failed to fetch".
func ClassifyBrowserFailure(bucket, key, message string) error {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "failed to fetch") ||
		strings.Contains(lower, "typeerror") ||
		strings.Contains(lower, "networkerror") ||
		strings.Contains(lower, "load failed") {
		return &CORSError{UploadError: UploadError{Key: key, Err: errors.New(message)}, Bucket: bucket}
	}
	return &UploadError{Key: key, Err: errors.New(message)}
}

// UserMessage returns the text shown next to a failed upload.
func UserMessage(err error) string {
	var cors *CORSError
	if errors.As(err, &cors) {
		return cors.Remediation()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return "Storage rejected the credentials. Check the R2 access key settings."
		case "NoSuchBucket":
			return "The storage bucket does not exist."
		}
		return "Storage error: " + apiErr.ErrorMessage()
	}
	var up *UploadError
	if errors.As(err, &up) {
		return "Upload failed: " + up.Err.Error()
	}
	if err == nil {
		return ""
	}
	return "Upload failed: " + err.Error()
}
