package handler

import (
	"context"
	"errors"

	"github.com/MikhailRaia/secure-shortener/internal/middleware"
	"github.com/MikhailRaia/secure-shortener/internal/proto"
	"github.com/MikhailRaia/secure-shortener/internal/service"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

type ShortenerGRPCServer struct {
	proto.UnimplementedShortenerServiceServer
	linkService LinkService
	baseURL     string
}

// NewShortenerGRPCServer creates the gRPC server. baseURL prefixes short URLs,
// since gRPC calls carry no Host to derive one from.
func NewShortenerGRPCServer(linkService LinkService, baseURL string) *ShortenerGRPCServer {
	return &ShortenerGRPCServer{
		linkService: linkService,
		baseURL:     baseURL,
	}
}

func (s *ShortenerGRPCServer) ShortenURL(ctx context.Context, req *proto.URLShortenRequest) (*proto.URLShortenResponse, error) {
	claimed := req.UserID
	if claimed == "" {
		claimed = middleware.ClaimedOwner(ctx)
	}

	ownerID, err := middleware.ResolveOwner(ctx, claimed)
	if err != nil {
		return nil, status.Error(codes.PermissionDenied, "userId does not match the signed-in user")
	}

	if req.URL == "" || ownerID == "" {
		return nil, status.Error(codes.InvalidArgument, "url and userId are required")
	}

	link, err := s.linkService.Create(ctx, req.URL, ownerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		log.Error().Err(err).Msg("gRPC ShortenURL failed")
		return nil, status.Errorf(codes.Internal, "failed to shorten URL: %v", err)
	}

	return &proto.URLShortenResponse{
		ShortCode: link.Code,
		ShortURL:  s.linkService.ShortURL(s.baseURL, link.Code),
	}, nil
}

func (s *ShortenerGRPCServer) ExpandURL(ctx context.Context, req *proto.URLExpandRequest) (*proto.URLExpandResponse, error) {
	if req.Code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}

	originalURL, err := s.linkService.Resolve(ctx, req.Code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "url not found")
		}
		log.Error().Err(err).Msg("gRPC ExpandURL failed")
		return nil, status.Errorf(codes.Internal, "failed to expand URL: %v", err)
	}

	return &proto.URLExpandResponse{OriginalURL: originalURL}, nil
}

func (s *ShortenerGRPCServer) ListUserURLs(ctx context.Context, _ *emptypb.Empty) (*proto.UserURLsResponse, error) {
	ownerID, err := middleware.ResolveOwner(ctx, middleware.ClaimedOwner(ctx))
	if err != nil {
		return nil, status.Error(codes.PermissionDenied, "userId does not match the signed-in user")
	}

	if ownerID == "" {
		return nil, status.Error(codes.Unauthenticated, "user not identified")
	}

	links, err := s.linkService.List(ctx, ownerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		log.Error().Err(err).Msg("gRPC ListUserURLs failed")
		return nil, status.Errorf(codes.Internal, "failed to get user URLs: %v", err)
	}

	resp := &proto.UserURLsResponse{
		URLs: make([]*proto.URLData, 0, len(links)),
	}

	for _, link := range links {
		resp.URLs = append(resp.URLs, &proto.URLData{
			ShortCode:   link.Code,
			OriginalURL: link.OriginalURL,
			ShortURL:    s.linkService.ShortURL(s.baseURL, link.Code),
		})
	}

	return resp, nil
}
