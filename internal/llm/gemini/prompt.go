package gemini

// extractionPrompt instructs the model to return one JSON object covering the
// seven lab-report sections. Some source documents label values in Indonesian,
// hence the localized measurement keys.
const extractionPrompt = `Analyze this medical document PDF and extract the following information in JSON format.
If any information is not found, leave the value as null. Some labels are Indonesian (e.g., "berat jenis" for urine density).
For urinalysis, hematology, and clinical chemistry, return objects with keys:
"Hasil", "Nilai Rujukan", "Satuan", "Metode".

Required Fields:
1. DEMOGRAPHY:
   - subject_initials
   - sin
   - study_drug
   - screening_date
   - gender
   - date_of_birth
   - age
   - weight_kg
   - height_cm
   - bmi
2. MEDICAL_HISTORY:
   - smoker_cigarettes_per_day
3. VITAL_SIGNS:
   - systolic_bp
   - diastolic_bp
   - heart_rate
4. SEROLOGY:
   - hbsag
   - hcv
   - hiv
5. URINALYSIS:
   - ph
   - density
   - glucose
   - ketone
   - urobilinogen
   - bilirubin
   - blood
   - leucocyte_esterase
   - nitrite
6. HEMATOLOGY:
   - hemoglobin
   - hematocrit
   - leukocyte
   - erythrocyte
   - thrombocyte
   - esr
7. CLINICAL_CHEMISTRY:
   - bilirubin_total
   - alkaline_phosphatase
   - sgot
   - sgpt
   - ureum
   - creatinine
   - random_blood_glucose

Provide ONLY a single JSON object with those sections/keys.`
