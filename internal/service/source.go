package service

import (
	"context"

	"github.com/memscope/internal/memory"
	apperrors "github.com/memscope/pkg/errors"
	"github.com/memscope/pkg/model"
)

// Source selects the memory a scan reads.
type Source struct {
	Type model.SourceType

	// ImagePath is a raw memory dump mapped at ImageBase (hex text).
	ImagePath string
	ImageBase string

	// WasmPath is a module whose exported memory WasmMemory is scanned.
	WasmPath   string
	WasmMemory string
}

// OpenedSource is a region plus whatever must be released after the scan.
type OpenedSource struct {
	Region memory.Region
	close  func(context.Context) error
}

// Close releases the source.
func (o *OpenedSource) Close(ctx context.Context) error {
	if o.close == nil {
		return nil
	}
	return o.close(ctx)
}

// OpenSource opens the memory described by src.
func (s *Service) OpenSource(ctx context.Context, src Source) (*OpenedSource, error) {
	switch src.Type {
	case model.SourceSelf, "":
		region, err := memory.NewProcessRegion()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeSourceError, "open process memory", err)
		}
		return &OpenedSource{Region: region}, nil

	case model.SourceImage:
		if src.ImagePath == "" {
			return nil, apperrors.New(apperrors.CodeInvalidInput, "image source needs an image path")
		}
		region, err := memory.LoadImageFile(src.ImagePath, memory.ParseAddress(src.ImageBase))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeSourceError, "open image "+src.ImagePath, err)
		}
		s.logger.Debug("mapped %d byte image at %s", len(region.Data), region.Base)
		return &OpenedSource{Region: region}, nil

	case model.SourceWasm:
		if src.WasmPath == "" {
			return nil, apperrors.New(apperrors.CodeInvalidInput, "wasm source needs a module path")
		}
		inst, err := memory.LoadWasmModule(ctx, src.WasmPath, src.WasmMemory)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeSourceError, "open wasm module "+src.WasmPath, err)
		}
		s.logger.Debug("instantiated %s with %d bytes of linear memory", src.WasmPath, inst.Region.Size())
		return &OpenedSource{Region: inst.Region, close: inst.Close}, nil

	default:
		return nil, apperrors.New(apperrors.CodeInvalidInput, "unknown memory source "+string(src.Type))
	}
}
