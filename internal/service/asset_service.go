package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/agencyhub/postbridge/internal/models"
	"github.com/agencyhub/postbridge/internal/repository"
	"github.com/agencyhub/postbridge/pkg/utils"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

type AssetService interface {
	Upload(ctx context.Context, clientID string, file *multipart.FileHeader) (*models.MediaAsset, error)
	List(ctx context.Context, clientID string) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, id string) error
}

type assetService struct {
	ma repository.MediaAssetRepository
	r2 *R2Service
}

func NewAssetService(ma repository.MediaAssetRepository, r2 *R2Service) AssetService {
	return &assetService{ma: ma, r2: r2}
}

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
}

// Upload sniffs the file type, stores the bytes in R2 and records the asset.
// The returned asset's FileURL is what scheduled posts carry in media_urls.
func (s *assetService) Upload(ctx context.Context, clientID string, file *multipart.FileHeader) (*models.MediaAsset, error) {
	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("unsupported file type")
	}
	if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
		return nil, fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	id, err := utils.NewID()
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s.%s", clientID, id, fileType.Extension)
	if err := s.r2.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	asset := &models.MediaAsset{
		ID:       id,
		ClientID: clientID,
		FileName: file.Filename,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  s.r2.PublicURL(key),
	}
	if err := s.ma.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("error saving media asset: %w", err)
	}

	return asset, nil
}

func (s *assetService) List(ctx context.Context, clientID string) ([]*models.MediaAsset, error) {
	return s.ma.ListByClientID(ctx, clientID)
}

func (s *assetService) Remove(ctx context.Context, id string) error {
	return s.ma.Remove(ctx, id)
}
