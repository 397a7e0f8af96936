package grpc

// proto.go defines the gRPC server interface for creditrisk/v1/credit_risk.proto.
// It stands in for buf-generated code; messages travel with the json codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreditRiskServiceServer is the server API for creditrisk.v1.CreditRiskService.
type CreditRiskServiceServer interface {
	ScoreApplicant(context.Context, *ScoreApplicantRequest) (*ScoreApplicantResponse, error)
	GetSubmissionHistory(context.Context, *GetSubmissionHistoryRequest) (*GetSubmissionHistoryResponse, error)
	ProcessBatchUpload(context.Context, *ProcessBatchUploadRequest) (*ProcessBatchUploadResponse, error)
	GetBatchUpload(context.Context, *GetBatchUploadRequest) (*GetBatchUploadResponse, error)
	ListBatchUploads(context.Context, *ListBatchUploadsRequest) (*ListBatchUploadsResponse, error)
	ExportUploadReport(context.Context, *ExportUploadReportRequest) (*ExportUploadReportResponse, error)
	GetPortfolioSummary(context.Context, *GetPortfolioSummaryRequest) (*GetPortfolioSummaryResponse, error)
	mustEmbedUnimplementedCreditRiskServiceServer()
}

// UnimplementedCreditRiskServiceServer provides forward-compatible default implementations.
type UnimplementedCreditRiskServiceServer struct{}

func (UnimplementedCreditRiskServiceServer) ScoreApplicant(context.Context, *ScoreApplicantRequest) (*ScoreApplicantResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreApplicant not implemented")
}
func (UnimplementedCreditRiskServiceServer) GetSubmissionHistory(context.Context, *GetSubmissionHistoryRequest) (*GetSubmissionHistoryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSubmissionHistory not implemented")
}
func (UnimplementedCreditRiskServiceServer) ProcessBatchUpload(context.Context, *ProcessBatchUploadRequest) (*ProcessBatchUploadResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ProcessBatchUpload not implemented")
}
func (UnimplementedCreditRiskServiceServer) GetBatchUpload(context.Context, *GetBatchUploadRequest) (*GetBatchUploadResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetBatchUpload not implemented")
}
func (UnimplementedCreditRiskServiceServer) ListBatchUploads(context.Context, *ListBatchUploadsRequest) (*ListBatchUploadsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListBatchUploads not implemented")
}
func (UnimplementedCreditRiskServiceServer) ExportUploadReport(context.Context, *ExportUploadReportRequest) (*ExportUploadReportResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ExportUploadReport not implemented")
}
func (UnimplementedCreditRiskServiceServer) GetPortfolioSummary(context.Context, *GetPortfolioSummaryRequest) (*GetPortfolioSummaryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPortfolioSummary not implemented")
}
func (UnimplementedCreditRiskServiceServer) mustEmbedUnimplementedCreditRiskServiceServer() {}

// RegisterCreditRiskServiceServer registers srv with the gRPC server.
func RegisterCreditRiskServiceServer(s *grpclib.Server, srv CreditRiskServiceServer) {
	s.RegisterService(&_CreditRiskService_serviceDesc, srv) //nolint:revive // gRPC handler registration
}

//nolint:revive // gRPC handler registration
var _CreditRiskService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: "creditrisk.v1.CreditRiskService",
	HandlerType: (*CreditRiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "ScoreApplicant", Handler: _CreditRiskService_ScoreApplicant_Handler},             //nolint:revive // gRPC handler registration
		{MethodName: "GetSubmissionHistory", Handler: _CreditRiskService_GetSubmissionHistory_Handler}, //nolint:revive // gRPC handler registration
		{MethodName: "ProcessBatchUpload", Handler: _CreditRiskService_ProcessBatchUpload_Handler},     //nolint:revive // gRPC handler registration
		{MethodName: "GetBatchUpload", Handler: _CreditRiskService_GetBatchUpload_Handler},             //nolint:revive // gRPC handler registration
		{MethodName: "ListBatchUploads", Handler: _CreditRiskService_ListBatchUploads_Handler},         //nolint:revive // gRPC handler registration
		{MethodName: "ExportUploadReport", Handler: _CreditRiskService_ExportUploadReport_Handler},     //nolint:revive // gRPC handler registration
		{MethodName: "GetPortfolioSummary", Handler: _CreditRiskService_GetPortfolioSummary_Handler},   //nolint:revive // gRPC handler registration
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "creditrisk/v1/credit_risk.proto",
}

//nolint:revive // gRPC handler registration
func _CreditRiskService_ScoreApplicant_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(ScoreApplicantRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).ScoreApplicant(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/creditrisk.v1.CreditRiskService/ScoreApplicant",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).ScoreApplicant(ctx, req.(*ScoreApplicantRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive // gRPC handler registration
func _CreditRiskService_GetSubmissionHistory_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetSubmissionHistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).GetSubmissionHistory(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/creditrisk.v1.CreditRiskService/GetSubmissionHistory",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).GetSubmissionHistory(ctx, req.(*GetSubmissionHistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive // gRPC handler registration
func _CreditRiskService_ProcessBatchUpload_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(ProcessBatchUploadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).ProcessBatchUpload(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/creditrisk.v1.CreditRiskService/ProcessBatchUpload",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).ProcessBatchUpload(ctx, req.(*ProcessBatchUploadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive // gRPC handler registration
func _CreditRiskService_GetBatchUpload_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBatchUploadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).GetBatchUpload(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/creditrisk.v1.CreditRiskService/GetBatchUpload",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).GetBatchUpload(ctx, req.(*GetBatchUploadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive // gRPC handler registration
func _CreditRiskService_ListBatchUploads_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListBatchUploadsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).ListBatchUploads(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/creditrisk.v1.CreditRiskService/ListBatchUploads",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).ListBatchUploads(ctx, req.(*ListBatchUploadsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive // gRPC handler registration
func _CreditRiskService_ExportUploadReport_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(ExportUploadReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).ExportUploadReport(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/creditrisk.v1.CreditRiskService/ExportUploadReport",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).ExportUploadReport(ctx, req.(*ExportUploadReportRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive // gRPC handler registration
func _CreditRiskService_GetPortfolioSummary_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPortfolioSummaryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).GetPortfolioSummary(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/creditrisk.v1.CreditRiskService/GetPortfolioSummary",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).GetPortfolioSummary(ctx, req.(*GetPortfolioSummaryRequest))
	}
	return interceptor(ctx, in, info, handler)
}
