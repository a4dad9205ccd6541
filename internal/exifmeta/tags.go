package exifmeta

// Pointer tags.
const (
	tagExifIFDPointer uint16 = 0x8769
	tagGPSIFDPointer  uint16 = 0x8825
)

// IFD0 tags by category.
var (
	ifd0CameraLensTags      = tagSet(0x010F, 0x0110)                 // Make, Model
	ifd0SoftwareTags        = tagSet(0x0131, 0x013C, 0x000B)         // Software, HostComputer, ProcessingSoftware
	ifd0AuthorCopyrightTags = tagSet(0x013B, 0x8298, 0xA430)         // Artist, Copyright, CameraOwnerName
	ifd0CommentTags         = tagSet(0x010E)                         // ImageDescription
)

// ExifIFD tags by category.
var (
	exifCameraLensTags      = tagSet(0xA433, 0xA434, 0xA431, 0xA435, 0xA432)         // LensMake, LensModel, BodySerialNumber, LensSerialNumber, LensSpecification
	exifSoftwareTags        = tagSet(0x000B)                                         // ProcessingSoftware
	exifAuthorCopyrightTags = tagSet(0xA430)                                         // CameraOwnerName
	exifCommentTags         = tagSet(0x9286, 0x9C9C, 0x9C9B, 0x9C9E, 0x9C9F, 0x9C9D) // UserComment, XPComment, XPTitle, XPSubject, XPKeywords, XPAuthor
)

const tagMakerNote uint16 = 0x927C

// Datetime tags.
const (
	tagDateTime          uint16 = 0x0132 // IFD0
	tagDateTimeOriginal  uint16 = 0x9003 // ExifIFD
	tagDateTimeDigitized uint16 = 0x9004 // ExifIFD
	tagOrientation       uint16 = 0x0112 // IFD0
)

var exifDateTimeTags = tagSet(
	0x9003, 0x9004, // DateTimeOriginal, DateTimeDigitized
	0x9290, 0x9291, 0x9292, // SubSecTime, SubSecTimeOriginal, SubSecTimeDigitized
)

// ExifIFD capture-parameter tags stripped by the shootingSettings category.
var exifShootingSettingsTags = tagSet(
	0x829A, 0x829D, // ExposureTime, FNumber
	0x8822,         // ExposureProgram
	0x8827,         // ISOSpeedRatings
	0x9201, 0x9202, 0x9203, 0x9204, 0x9205, 0x9206, // ShutterSpeedValue..SubjectDistance
	0x9207, 0x9208, 0x9209, // MeteringMode, LightSource, Flash
	0x920A,                 // FocalLength
	0xA20E, 0xA20F, 0xA210, // FocalPlane*
	0xA215,         // ExposureIndex
	0xA217,         // SensingMethod
	0xA300, 0xA301, // FileSource, SceneType
	0xA302, // CFAPattern
	0xA401, 0xA402, 0xA403, 0xA404, 0xA405, 0xA406, // CustomRendered..SceneCaptureType
	0xA407, 0xA408, 0xA409, 0xA40A, 0xA40B, 0xA40C, // GainControl..SubjectDistanceRange
	0xA420,                                         // ImageUniqueID
	0x8830, 0x8831, 0x8832, 0x8833, 0x8834, 0x8835, // SensitivityType..ISOSpeedLatitudezzz
	0xA460, 0xA461, 0xA462, // CompositeImage family
)

// Thumbnail IFD pointers.
const (
	tagJPEGInterchangeFormat       uint16 = 0x0201
	tagJPEGInterchangeFormatLength uint16 = 0x0202
)

// Structural IFD0 tags kept even by a full clean.
var essentialIFD0Tags = tagSet(
	0x0100, 0x0101, // ImageWidth, ImageLength
	0x0102, 0x0103, 0x0106, // BitsPerSample, Compression, PhotometricInterpretation
	0x011A, 0x011B, 0x0128, // XResolution, YResolution, ResolutionUnit
	0x0112, // Orientation
	0x0115, // SamplesPerPixel
	0x0213, // YCbCrPositioning
	0x0211, 0x0212, // YCbCrCoefficients, YCbCrSubSampling
	0x013E, 0x013F, 0x0142, 0x0143, // WhitePoint, PrimaryChromaticities, TileWidth, TileLength
	tagExifIFDPointer,
)

// ExifIFD tags kept unconditionally.
var alwaysKeepExifTags = tagSet(
	0xA002, 0xA003, // PixelXDimension, PixelYDimension
	0xA001, // ColorSpace
)

func tagSet(tags ...uint16) map[uint16]bool {
	set := make(map[uint16]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}
