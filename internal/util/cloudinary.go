package util

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"socialfeed/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const (
	tmpDirName = "tmp"
)

type CloudinaryClient struct {
	cld *cloudinary.Cloudinary
	cfg *config.Config
}

func NewCloudinaryClient(cfg *config.Config) (*CloudinaryClient, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryClient{
		cld: cld,
		cfg: cfg,
	}, nil
}

// CompressImage compresses an image file and saves to tmp directory
func (c *CloudinaryClient) CompressImage(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	var img image.Image
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
		if err != nil {
			return "", fmt.Errorf("error decoding JPEG: %w", err)
		}
	case ".png":
		img, err = png.Decode(file)
		if err != nil {
			return "", fmt.Errorf("error decoding PNG: %w", err)
		}
	case ".webp":
		// WebP is uploaded directly without recompression
		return filePath, nil
	default:
		return "", fmt.Errorf("unsupported image format: %s", ext)
	}

	tmpDir, err := ensureTmpDir()
	if err != nil {
		return "", err
	}

	compressedPath := filepath.Join(tmpDir, uuid.New().String()+".compressed.jpg")
	compressedFile, err := os.Create(compressedPath)
	if err != nil {
		return "", fmt.Errorf("error creating compressed file: %w", err)
	}
	defer compressedFile.Close()

	if err := jpeg.Encode(compressedFile, img, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("error encoding compressed image: %w", err)
	}

	return compressedPath, nil
}

// UploadImage uploads an image file to Cloudinary (delivered as WebP)
func (c *CloudinaryClient) UploadImage(filePath string) (string, error) {
	ctx := context.Background()

	result, err := c.cld.Upload.Upload(ctx, filePath, uploader.UploadParams{
		Folder:         c.cfg.CloudinaryFolder,
		Transformation: "q_auto,f_webp,w_1280",
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("error uploading to cloudinary: %w", err)
	}

	// Inject transformation into URL so image is served as WebP
	url := result.SecureURL
	url = strings.Replace(url, "/upload/", "/upload/f_webp,q_auto,w_1280/", 1)
	return url, nil
}

// ProcessFileFromMemory compresses and uploads an in-memory file
func (c *CloudinaryClient) ProcessFileFromMemory(fileData []byte, filename string) (string, error) {
	tmpDir, err := ensureTmpDir()
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	tempFile := filepath.Join(tmpDir, uuid.New().String()+ext)

	if err := os.WriteFile(tempFile, fileData, 0644); err != nil {
		return "", fmt.Errorf("error writing temp file: %w", err)
	}
	defer os.Remove(tempFile)

	compressedPath, err := c.CompressImage(tempFile)
	if err != nil {
		// If compression fails, use original
		compressedPath = tempFile
	} else if compressedPath != tempFile {
		defer os.Remove(compressedPath)
	}

	return c.UploadImage(compressedPath)
}

// ProcessMultipleFiles uploads several in-memory files, skipping failures
func (c *CloudinaryClient) ProcessMultipleFiles(files []FileData) ([]string, error) {
	var imageURLs []string

	for _, fileData := range files {
		imageURL, err := c.ProcessFileFromMemory(fileData.Data, fileData.Filename)
		if err != nil {
			fmt.Printf("Error processing file %s: %v\n", fileData.Filename, err)
			continue
		}
		imageURLs = append(imageURLs, imageURL)
	}

	if len(imageURLs) == 0 {
		return nil, fmt.Errorf("no images were successfully processed")
	}

	return imageURLs, nil
}

// FileData represents file data in memory
type FileData struct {
	Data     []byte
	Filename string
	MimeType string
}

// ReadFileFromReader reads file data from an io.Reader
func ReadFileFromReader(reader io.Reader, filename string) (*FileData, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	mimeType := "image/jpeg"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		mimeType = "image/png"
	case ".webp":
		mimeType = "image/webp"
	case ".gif":
		mimeType = "image/gif"
	}

	return &FileData{
		Data:     data,
		Filename: filename,
		MimeType: mimeType,
	}, nil
}

// ensureTmpDir ensures the tmp directory exists
func ensureTmpDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		tmpDir := filepath.Join(os.TempDir(), tmpDirName)
		if err := os.MkdirAll(tmpDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create tmp directory: %w", err)
		}
		return tmpDir, nil
	}

	tmpDir := filepath.Join(wd, tmpDirName)
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create tmp directory: %w", err)
	}
	return tmpDir, nil
}
