package reservationv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	serviceName = "tablebook.reservation.v1.ReservationService"

	ReservationService_Slots_FullMethodName            = "/" + serviceName + "/Slots"
	ReservationService_Book_FullMethodName             = "/" + serviceName + "/Book"
	ReservationService_Search_FullMethodName           = "/" + serviceName + "/Search"
	ReservationService_Update_FullMethodName           = "/" + serviceName + "/Update"
	ReservationService_Cancel_FullMethodName           = "/" + serviceName + "/Cancel"
	ReservationService_History_FullMethodName          = "/" + serviceName + "/History"
	ReservationService_JoinWaitlist_FullMethodName     = "/" + serviceName + "/JoinWaitlist"
	ReservationService_WaitlistPosition_FullMethodName = "/" + serviceName + "/WaitlistPosition"
	ReservationService_LeaveWaitlist_FullMethodName    = "/" + serviceName + "/LeaveWaitlist"
)

// ReservationServiceClient is the client API for ReservationService.
type ReservationServiceClient interface {
	Slots(ctx context.Context, in *SlotsRequest, opts ...grpc.CallOption) (*SlotsResponse, error)
	Book(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*BookResponse, error)
	Search(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*SearchResponse, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error)
	Cancel(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*CancelResponse, error)
	History(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*HistoryResponse, error)
	JoinWaitlist(ctx context.Context, in *JoinWaitlistRequest, opts ...grpc.CallOption) (*JoinWaitlistResponse, error)
	WaitlistPosition(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*WaitlistPositionResponse, error)
	LeaveWaitlist(ctx context.Context, in *LeaveWaitlistRequest, opts ...grpc.CallOption) (*LeaveWaitlistResponse, error)
}

type reservationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewReservationServiceClient returns a client that always encodes with CodecName.
func NewReservationServiceClient(cc grpc.ClientConnInterface) ReservationServiceClient {
	return &reservationServiceClient{cc: cc}
}

func invoke[Response any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Response, error) {
	out := new(Response)
	callOptions := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOptions...); err != nil {
		return nil, err
	}
	return out, nil
}

func (client *reservationServiceClient) Slots(ctx context.Context, in *SlotsRequest, opts ...grpc.CallOption) (*SlotsResponse, error) {
	return invoke[SlotsResponse](ctx, client.cc, ReservationService_Slots_FullMethodName, in, opts)
}

func (client *reservationServiceClient) Book(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*BookResponse, error) {
	return invoke[BookResponse](ctx, client.cc, ReservationService_Book_FullMethodName, in, opts)
}

func (client *reservationServiceClient) Search(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, client.cc, ReservationService_Search_FullMethodName, in, opts)
}

func (client *reservationServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	return invoke[UpdateResponse](ctx, client.cc, ReservationService_Update_FullMethodName, in, opts)
}

func (client *reservationServiceClient) Cancel(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*CancelResponse, error) {
	return invoke[CancelResponse](ctx, client.cc, ReservationService_Cancel_FullMethodName, in, opts)
}

func (client *reservationServiceClient) History(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, client.cc, ReservationService_History_FullMethodName, in, opts)
}

func (client *reservationServiceClient) JoinWaitlist(ctx context.Context, in *JoinWaitlistRequest, opts ...grpc.CallOption) (*JoinWaitlistResponse, error) {
	return invoke[JoinWaitlistResponse](ctx, client.cc, ReservationService_JoinWaitlist_FullMethodName, in, opts)
}

func (client *reservationServiceClient) WaitlistPosition(ctx context.Context, in *Contact, opts ...grpc.CallOption) (*WaitlistPositionResponse, error) {
	return invoke[WaitlistPositionResponse](ctx, client.cc, ReservationService_WaitlistPosition_FullMethodName, in, opts)
}

func (client *reservationServiceClient) LeaveWaitlist(ctx context.Context, in *LeaveWaitlistRequest, opts ...grpc.CallOption) (*LeaveWaitlistResponse, error) {
	return invoke[LeaveWaitlistResponse](ctx, client.cc, ReservationService_LeaveWaitlist_FullMethodName, in, opts)
}

// ReservationServiceServer is the server API for ReservationService.
// Implementations must embed UnimplementedReservationServiceServer.
type ReservationServiceServer interface {
	Slots(context.Context, *SlotsRequest) (*SlotsResponse, error)
	Book(context.Context, *BookRequest) (*BookResponse, error)
	Search(context.Context, *Contact) (*SearchResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Cancel(context.Context, *Contact) (*CancelResponse, error)
	History(context.Context, *Contact) (*HistoryResponse, error)
	JoinWaitlist(context.Context, *JoinWaitlistRequest) (*JoinWaitlistResponse, error)
	WaitlistPosition(context.Context, *Contact) (*WaitlistPositionResponse, error)
	LeaveWaitlist(context.Context, *LeaveWaitlistRequest) (*LeaveWaitlistResponse, error)
	mustEmbedUnimplementedReservationServiceServer()
}

// UnimplementedReservationServiceServer answers every method with codes.Unimplemented.
type UnimplementedReservationServiceServer struct{}

func (UnimplementedReservationServiceServer) Slots(context.Context, *SlotsRequest) (*SlotsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Slots not implemented")
}
func (UnimplementedReservationServiceServer) Book(context.Context, *BookRequest) (*BookResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Book not implemented")
}
func (UnimplementedReservationServiceServer) Search(context.Context, *Contact) (*SearchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Search not implemented")
}
func (UnimplementedReservationServiceServer) Update(context.Context, *UpdateRequest) (*UpdateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}
func (UnimplementedReservationServiceServer) Cancel(context.Context, *Contact) (*CancelResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Cancel not implemented")
}
func (UnimplementedReservationServiceServer) History(context.Context, *Contact) (*HistoryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method History not implemented")
}
func (UnimplementedReservationServiceServer) JoinWaitlist(context.Context, *JoinWaitlistRequest) (*JoinWaitlistResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method JoinWaitlist not implemented")
}
func (UnimplementedReservationServiceServer) WaitlistPosition(context.Context, *Contact) (*WaitlistPositionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method WaitlistPosition not implemented")
}
func (UnimplementedReservationServiceServer) LeaveWaitlist(context.Context, *LeaveWaitlistRequest) (*LeaveWaitlistResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method LeaveWaitlist not implemented")
}
func (UnimplementedReservationServiceServer) mustEmbedUnimplementedReservationServiceServer() {}

// RegisterReservationServiceServer attaches srv to registrar.
func RegisterReservationServiceServer(registrar grpc.ServiceRegistrar, srv ReservationServiceServer) {
	registrar.RegisterService(&ReservationService_ServiceDesc, srv)
}

func unaryHandler[Request any, Response any](method string, call func(ReservationServiceServer, context.Context, *Request) (*Response, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Request)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ReservationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, request any) (any, error) {
			return call(srv.(ReservationServiceServer), ctx, request.(*Request))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ReservationService_ServiceDesc is the grpc.ServiceDesc for ReservationService.
var ReservationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Slots", Handler: unaryHandler(ReservationService_Slots_FullMethodName, ReservationServiceServer.Slots)},
		{MethodName: "Book", Handler: unaryHandler(ReservationService_Book_FullMethodName, ReservationServiceServer.Book)},
		{MethodName: "Search", Handler: unaryHandler(ReservationService_Search_FullMethodName, ReservationServiceServer.Search)},
		{MethodName: "Update", Handler: unaryHandler(ReservationService_Update_FullMethodName, ReservationServiceServer.Update)},
		{MethodName: "Cancel", Handler: unaryHandler(ReservationService_Cancel_FullMethodName, ReservationServiceServer.Cancel)},
		{MethodName: "History", Handler: unaryHandler(ReservationService_History_FullMethodName, ReservationServiceServer.History)},
		{MethodName: "JoinWaitlist", Handler: unaryHandler(ReservationService_JoinWaitlist_FullMethodName, ReservationServiceServer.JoinWaitlist)},
		{MethodName: "WaitlistPosition", Handler: unaryHandler(ReservationService_WaitlistPosition_FullMethodName, ReservationServiceServer.WaitlistPosition)},
		{MethodName: "LeaveWaitlist", Handler: unaryHandler(ReservationService_LeaveWaitlist_FullMethodName, ReservationServiceServer.LeaveWaitlist)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reservation/v1/reservation.api",
}
